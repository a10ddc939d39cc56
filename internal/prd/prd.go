// Package prd models the requirements ledger the agent fleet works from:
// a JSON document of user stories with lifecycle fields, versioned in the
// shared repository.
//
// Layout mirrors the rest of the codebase:
//   - prd.go: document/story types, parsing, derived status
//   - reader.go: ledger retrieval with fallback and absence semantics
//   - diff.go: per-story status transitions between two snapshots
//   - editor.go: the serialized mutation path (clone, modify, commit, push)
package prd

import (
	"encoding/json"
	"fmt"
)

// Story is one unit of requested work in the ledger.
//
// Verified is a pointer on purpose: a ledger that has never adopted
// verification omits the field entirely, and that absence is meaningful
// (see VerificationInUse). Absent and false are different states.
type Story struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	Priority           int      `json:"priority"`
	Passes             bool     `json:"passes"`
	ClaimedBy          string   `json:"claimed_by,omitempty"`
	ClaimedAt          string   `json:"claimed_at,omitempty"`
	Verified           *bool    `json:"verified,omitempty"`
	VerifiedBy         string   `json:"verified_by,omitempty"`
	VerifiedAt         string   `json:"verified_at,omitempty"`
	VerificationNotes  string   `json:"verification_notes,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// Document is the ledger as retrieved at one commit: an ordered story list.
// Story order is declaration order and is preserved everywhere, including
// diff output.
type Document struct {
	Project string  `json:"project,omitempty"`
	Stories []Story `json:"stories"`
}

// Parse decodes ledger content. Duplicate story ids violate the ledger's
// one invariant and are rejected here rather than surfacing as confusing
// diff output later.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}

	seen := make(map[string]bool, len(doc.Stories))
	for _, s := range doc.Stories {
		if s.ID == "" {
			return nil, fmt.Errorf("parsing ledger: story with empty id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("parsing ledger: duplicate story id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return &doc, nil
}

// Marshal encodes a ledger document for the write path.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// FindStory returns the story with the given id, or nil.
func (d *Document) FindStory(id string) *Story {
	for i := range d.Stories {
		if d.Stories[i].ID == id {
			return &d.Stories[i]
		}
	}
	return nil
}

// --- Derived status ---

// Status values. "claimed by <X>" is produced by DeriveStatus directly and
// has no constant.
const (
	StatusAvailable = "available"
	StatusVerifying = "verifying"
	StatusDone      = "done"
	StatusNew       = "new" // diff-only pseudo-state for stories without a baseline counterpart
)

// VerificationInUse reports whether this snapshot has adopted verification:
// true iff any story carries the verified field at all, false included.
// It is a property of the whole snapshot and must be computed once and
// applied to every story in it.
func (d *Document) VerificationInUse() bool {
	for i := range d.Stories {
		if d.Stories[i].Verified != nil {
			return true
		}
	}
	return false
}

// DeriveStatus computes a story's lifecycle status. verificationInUse is
// the snapshot-wide toggle, passed explicitly so the two sides of a diff
// can evaluate under different toggles.
//
// A passing story in a verification-adopting snapshot that is not itself
// verified is "verifying" — even when the story has no verified field of
// its own.
func DeriveStatus(s *Story, verificationInUse bool) string {
	if s.Passes {
		if !verificationInUse || (s.Verified != nil && *s.Verified) {
			return StatusDone
		}
		return StatusVerifying
	}
	if s.ClaimedBy != "" {
		return "claimed by " + s.ClaimedBy
	}
	return StatusAvailable
}
