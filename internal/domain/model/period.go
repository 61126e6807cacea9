package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// PeriodKind tags a Period.
type PeriodKind int

const (
	// Draft is the pre-season ranking period.
	Draft PeriodKind = iota
	// Weekly is an in-season week.
	Weekly
)

// Period is either Draft or Weekly(week) with week > 0. The zero value is Draft.
type Period struct {
	kind PeriodKind
	week int
}

// DraftPeriod returns the draft period.
func DraftPeriod() Period { return Period{kind: Draft} }

// WeeklyPeriod returns the period for an in-season week.
func WeeklyPeriod(week int) (Period, error) {
	if week <= 0 {
		return Period{}, fmt.Errorf("%w: week must be positive, got %d", ErrInvalidPeriod, week)
	}
	return Period{kind: Weekly, week: week}, nil
}

// ResolveWeek maps the external week number convention to a Period:
// 0 means draft, a positive number is that week.
func ResolveWeek(week int) (Period, error) {
	if week == 0 {
		return DraftPeriod(), nil
	}
	return WeeklyPeriod(week)
}

// Kind returns Draft or Weekly.
func (p Period) Kind() PeriodKind { return p.kind }

// IsDraft reports whether p is the draft period.
func (p Period) IsDraft() bool { return p.kind == Draft }

// Week returns the week number, 0 for draft.
func (p Period) Week() int { return p.week }

// Slug is the period part of labels and file names: "draft" or "week3".
func (p Period) Slug() string {
	if p.IsDraft() {
		return "draft"
	}
	return "week" + strconv.Itoa(p.week)
}

// Label returns the appearance label for a season, e.g. "2019_draft".
func (p Period) Label(year int) string {
	return strconv.Itoa(year) + "_" + p.Slug()
}

func (p Period) String() string { return p.Slug() }

// PeriodKey is the structured form of an appearance label. Week 0 is draft,
// which sorts before every week of the same season.
type PeriodKey struct {
	Year int
	Week int
}

// Compare orders keys by season then week.
func (k PeriodKey) Compare(o PeriodKey) int {
	if c := cmp.Compare(k.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(k.Week, o.Week)
}

// ParseLabel parses labels of the form "<year>_draft" or "<year>_week<n>".
func ParseLabel(label string) (PeriodKey, error) {
	yearPart, slug, ok := strings.Cut(label, "_")
	if !ok {
		return PeriodKey{}, fmt.Errorf("%w: label %q has no season prefix", ErrInvalidPeriod, label)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || year <= 0 {
		return PeriodKey{}, fmt.Errorf("%w: label %q has a bad season", ErrInvalidPeriod, label)
	}
	if slug == "draft" {
		return PeriodKey{Year: year}, nil
	}
	weekPart, ok := strings.CutPrefix(slug, "week")
	if !ok {
		return PeriodKey{}, fmt.Errorf("%w: label %q is neither draft nor weekly", ErrInvalidPeriod, label)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil || week <= 0 {
		return PeriodKey{}, fmt.Errorf("%w: label %q has a bad week", ErrInvalidPeriod, label)
	}
	return PeriodKey{Year: year, Week: week}, nil
}

// LabelOrder compares appearance labels.
type LabelOrder interface {
	// Compare returns -1, 0 or 1, or an error when a label is unusable.
	Compare(a, b string) (int, error)
	// Check validates a single label.
	Check(label string) error
}

// LexicalOrder compares labels as plain strings, matching registries
// written by the legacy tool. "2019_week10" sorts before "2019_week9".
type LexicalOrder struct{}

func (LexicalOrder) Check(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidPeriod)
	}
	return nil
}

func (o LexicalOrder) Compare(a, b string) (int, error) {
	if err := o.Check(a); err != nil {
		return 0, err
	}
	if err := o.Check(b); err != nil {
		return 0, err
	}
	return strings.Compare(a, b), nil
}

// ChronologicalOrder parses labels and compares season then week.
type ChronologicalOrder struct{}

func (ChronologicalOrder) Check(label string) error {
	_, err := ParseLabel(label)
	return err
}

func (ChronologicalOrder) Compare(a, b string) (int, error) {
	ka, err := ParseLabel(a)
	if err != nil {
		return 0, err
	}
	kb, err := ParseLabel(b)
	if err != nil {
		return 0, err
	}
	return ka.Compare(kb), nil
}

// OrderByName returns the ordering for "lexical" or "chronological".
func OrderByName(name string) (LabelOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lexical":
		return LexicalOrder{}, nil
	case "chronological", "":
		return ChronologicalOrder{}, nil
	}
	return nil, fmt.Errorf("%w: unknown ordering %q", ErrInvalidPeriod, name)
}
