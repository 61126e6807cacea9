// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Identity is the exact key that decides whether two observations denote
// the same expert. A name or site change yields a different identity.
type Identity struct {
	ExpertID   int
	ExpertName string
	Site       string
}

// Less orders identities by id, then name, then site.
func (i Identity) Less(o Identity) bool {
	if i.ExpertID != o.ExpertID {
		return i.ExpertID < o.ExpertID
	}
	if i.ExpertName != o.ExpertName {
		return i.ExpertName < o.ExpertName
	}
	return i.Site < o.Site
}

func (i Identity) String() string {
	return strconv.Itoa(i.ExpertID) + "/" + i.ExpertName + "/" + i.Site
}

// ExpertIdentity is one expert as observed on a listing page during a scrape.
type ExpertIdentity struct {
	ExpertID   int
	ExpertName string
	Site       string
	// Included reports whether the expert is part of the consensus aggregate.
	Included bool
	// Updated is the listing's free-form "last updated" cell, kept verbatim.
	Updated    string
	ObservedAt time.Time
}

// Identity returns the identity triple of the observation.
func (e ExpertIdentity) Identity() Identity {
	return Identity{ExpertID: e.ExpertID, ExpertName: e.ExpertName, Site: e.Site}
}

// RegistryEntry is the persisted history of one expert identity.
type RegistryEntry struct {
	ExpertID        int       `json:"expert_id"`
	ExpertName      string    `json:"expert_name"`
	Site            string    `json:"site"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	FirstAppearance string    `json:"first_appearance"`
	LastAppearance  string    `json:"last_appearance"`
}

// Identity returns the identity triple of the entry.
func (e RegistryEntry) Identity() Identity {
	return Identity{ExpertID: e.ExpertID, ExpertName: e.ExpertName, Site: e.Site}
}
