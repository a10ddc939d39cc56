package prd

import (
	"context"
	"os"

	"github.com/mgalvin/swarmwatch/internal/gitstore"
)

// ReadLedger retrieves the ledger as it existed at ref inside the shared
// repository, falling back to the plain on-disk copy at fallbackPath when
// the repository cannot serve it (bad ref, path absent at that ref, or no
// repository at all).
//
// Absence is a valid state, not a fault: a nil Document means "no ledger
// yet" and callers must treat it as such. Malformed content is also treated
// as absence here — tolerant read paths have nothing useful to do with half
// a ledger. The mutation path (editor.go) does its own strict load instead.
func ReadLedger(ctx context.Context, store *gitstore.Store, ref, path, fallbackPath string) *Document {
	if ref != "" {
		if data, err := store.FileAtRef(ctx, ref, path); err == nil {
			if doc, err := Parse(data); err == nil {
				return doc
			}
		}
	}

	data, err := os.ReadFile(fallbackPath)
	if err != nil {
		return nil
	}
	doc, err := Parse(data)
	if err != nil {
		return nil
	}
	return doc
}
