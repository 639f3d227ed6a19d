// Package txmarker implements the persistent record of a pending
// deployment: a file whose presence denotes an uncommitted promotion,
// reconciled on first boot. The canonical write form is a JSON object;
// Read still accepts the legacy raw-name form so a marker left behind
// by earlier tooling reconciles correctly.
package txmarker

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Marker wraps the transaction marker file path.
type Marker struct {
	Path string
}

func New(path string) *Marker { return &Marker{Path: path} }

// document is the canonical on-disk shape. ID correlates the marker with
// the log line that created it; readers ignore unknown fields.
type document struct {
	Deployment string `json:"deployment"`
	ID         string `json:"id,omitempty"`
}

// Create writes the marker for a pending deployment, generating a fresh
// correlation ID.
func (m *Marker) Create(deploymentName string) error {
	data, err := json.Marshal(document{Deployment: deploymentName, ID: uuid.NewString()})
	if err != nil {
		return err
	}
	return os.WriteFile(m.Path, data, 0644)
}

// Exists reports whether a marker is currently present.
func (m *Marker) Exists() bool {
	_, err := os.Stat(m.Path)
	return err == nil
}

// Read returns the pending deployment name, or "" if no marker exists.
// It accepts both the canonical JSON object and a bare deployment name
// on one line.
func (m *Marker) Read() (string, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && doc.Deployment != "" {
		return doc.Deployment, nil
	}

	// legacy form: the raw deployment name, nothing else on the line
	return strings.TrimSpace(strings.SplitN(trimmed, "\n", 2)[0]), nil
}

// Remove deletes the marker if present; a missing marker is not an error.
func (m *Marker) Remove() error {
	err := os.Remove(m.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
