// Package registry merges expert observations into the persistent expert
// registry.
package registry

import (
	"slices"
	"strconv"

	"github.com/ffbrank/ffbrank/internal/domain/dedupe"
	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// Merge folds one batch of observations, all made during the period named
// by label, into existing. It does not modify its inputs.
//
// New identities get first = last = their observation. Known identities
// move FirstSeen/FirstAppearance earlier and LastSeen/LastAppearance later
// only. Entries not observed are returned unchanged and no entry is ever
// dropped. The result is sorted by expert id, name, then site.
func Merge(existing []model.RegistryEntry, observed []model.ExpertIdentity, label string, order model.LabelOrder) ([]model.RegistryEntry, error) {
	if order == nil {
		order = model.ChronologicalOrder{}
	}
	if err := order.Check(label); err != nil {
		return nil, Integrity("batch period label "+strconv.Quote(label), nil, err)
	}
	if err := Validate(existing, order); err != nil {
		return nil, err
	}
	for i := range observed {
		if observed[i].ObservedAt.IsZero() {
			id := observed[i].Identity()
			return nil, Integrity("observation without timestamp", &id, nil)
		}
	}

	out := slices.Clone(existing)
	index := make(map[model.Identity]int, len(out)+len(observed))
	for i := range out {
		index[out[i].Identity()] = i
	}

	for _, o := range dedupe.Collapse(observed) {
		id := o.Identity()
		i, ok := index[id]
		if !ok {
			index[id] = len(out)
			out = append(out, model.RegistryEntry{
				ExpertID:        o.ExpertID,
				ExpertName:      o.ExpertName,
				Site:            o.Site,
				FirstSeen:       o.ObservedAt,
				LastSeen:        o.ObservedAt,
				FirstAppearance: label,
				LastAppearance:  label,
			})
			continue
		}

		e := &out[i]
		if o.ObservedAt.Before(e.FirstSeen) {
			e.FirstSeen = o.ObservedAt
		}
		if o.ObservedAt.After(e.LastSeen) {
			e.LastSeen = o.ObservedAt
		}
		// labels were validated above, so Compare cannot fail here
		if c, _ := order.Compare(label, e.FirstAppearance); c < 0 {
			e.FirstAppearance = label
		}
		if c, _ := order.Compare(label, e.LastAppearance); c > 0 {
			e.LastAppearance = label
		}
	}

	SortEntries(out)
	return out, nil
}

// Validate checks a registry for duplicate identities, missing timestamps,
// inverted ranges and labels the ordering cannot handle.
func Validate(entries []model.RegistryEntry, order model.LabelOrder) error {
	if order == nil {
		order = model.ChronologicalOrder{}
	}
	seen := make(map[model.Identity]struct{}, len(entries))
	for i := range entries {
		e := &entries[i]
		id := e.Identity()
		if _, dup := seen[id]; dup {
			return Integrity("duplicate identity", &id, nil)
		}
		seen[id] = struct{}{}

		if e.FirstSeen.IsZero() || e.LastSeen.IsZero() {
			return Integrity("entry without timestamp", &id, nil)
		}
		if e.LastSeen.Before(e.FirstSeen) {
			return Integrity("last_seen before first_seen", &id, nil)
		}
		c, err := order.Compare(e.FirstAppearance, e.LastAppearance)
		if err != nil {
			return Integrity("unusable appearance label", &id, err)
		}
		if c > 0 {
			reason := "last_appearance before first_appearance"
			if _, chrono := order.(model.ChronologicalOrder); chrono && e.FirstAppearance <= e.LastAppearance {
				reason += "; labels are in plain string order, set FFBRANK_PERIOD_ORDERING=lexical for registries written that way"
			}
			return Integrity(reason, &id, nil)
		}
	}
	return nil
}

// SortEntries orders entries by expert id, name, then site.
func SortEntries(entries []model.RegistryEntry) {
	slices.SortFunc(entries, func(a, b model.RegistryEntry) int {
		ia, ib := a.Identity(), b.Identity()
		switch {
		case ia.Less(ib):
			return -1
		case ib.Less(ia):
			return 1
		}
		return 0
	})
}

// LatestPerExpert keeps one entry per expert id, the one seen most
// recently. Ties go to the entry that sorts last. The result is sorted by
// expert id.
func LatestPerExpert(entries []model.RegistryEntry) []model.RegistryEntry {
	sorted := slices.Clone(entries)
	SortEntries(sorted)

	out := make([]model.RegistryEntry, 0, len(sorted))
	for _, e := range sorted {
		n := len(out)
		if n > 0 && out[n-1].ExpertID == e.ExpertID {
			if !e.LastSeen.Before(out[n-1].LastSeen) {
				out[n-1] = e
			}
			continue
		}
		out = append(out, e)
	}
	return out
}
