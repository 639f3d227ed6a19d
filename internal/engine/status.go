package engine

import "github.com/HackerOS-Linux-System/hammer/internal/model"

// Status returns the current deployment's name and metadata.
// Read-only: no lock is taken.
func (e *Engine) Status() (string, model.Metadata, error) {
	name, err := e.currentName()
	if err != nil {
		return "", model.Metadata{}, err
	}
	meta, err := e.Meta.Read(name)
	if err != nil {
		return "", model.Metadata{}, err
	}
	return name, meta, nil
}
