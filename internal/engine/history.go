package engine

import (
	"github.com/HackerOS-Linux-System/hammer/internal/metastore"
)

// HistoryEntry is one row of `hammer history`: a deployment's metadata
// plus whether it is the current boot target.
type HistoryEntry struct {
	metastore.Entry
	Current bool
}

// History enumerates every deployment sorted by Created descending,
// marking whichever one current resolves to. limit caps the number of
// entries returned; 0 means unlimited.
func (e *Engine) History(limit int) ([]HistoryEntry, error) {
	names, err := e.listDeploymentNames()
	if err != nil {
		return nil, err
	}
	entries, err := e.Meta.All(names)
	if err != nil {
		return nil, err
	}

	current, _ := e.currentName()

	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, HistoryEntry{Entry: entry, Current: entry.Name == current})
	}
	return out, nil
}
