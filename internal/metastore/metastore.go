// Package metastore reads, writes, and merges per-deployment JSON
// metadata. Single-writer is enforced by lockguard, not by
// this package; write uses a temp-file-plus-rename for atomicity.
package metastore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

const MetaFileName = "meta.json"

// Store reads and writes meta.json documents under a deployments
// directory.
type Store struct {
	DeploymentsDir string
}

func New(deploymentsDir string) *Store {
	return &Store{DeploymentsDir: deploymentsDir}
}

func (s *Store) path(deployment string) string {
	return filepath.Join(s.DeploymentsDir, deployment, MetaFileName)
}

// Write persists meta atomically: write to a temp file in the same
// directory, then rename over the target.
func (s *Store) Write(deployment string, meta model.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &herr.MetaError{Reason: err.Error()}
	}

	target := s.path(deployment)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &herr.MetaError{Reason: err.Error()}
	}
	if err := os.Rename(tmp, target); err != nil {
		return &herr.MetaError{Reason: err.Error()}
	}
	return nil
}

// Read returns the metadata for deployment. A missing meta.json returns
// the zero Metadata, not an error.
func (s *Store) Read(deployment string) (model.Metadata, error) {
	var meta model.Metadata
	data, err := os.ReadFile(s.path(deployment))
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil
		}
		return meta, &herr.MetaError{Reason: err.Error()}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, &herr.MetaError{Reason: fmt.Sprintf("%s: %v", deployment, err)}
	}
	return meta, nil
}

// Update merges patch into the existing document and writes the result.
func (s *Store) Update(deployment string, patch func(*model.Metadata)) error {
	meta, err := s.Read(deployment)
	if err != nil {
		return err
	}
	patch(&meta)
	return s.Write(deployment, meta)
}

// Entry pairs a deployment name with its metadata, for listing.
type Entry struct {
	Name string
	Meta model.Metadata
}

// All reads every hammer-* deployment's metadata, given the list of names
// (from btrfsops.ListDeployments), sorted by Created descending.
func (s *Store) All(names []string) ([]Entry, error) {
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		meta, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: name, Meta: meta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta.Created.After(out[j].Meta.Created) })
	return out, nil
}

// GoodNewestFirst filters entries to status ready|booted, sorted by
// Created descending, and returns at most limit of them.
func GoodNewestFirst(entries []Entry, limit int) []Entry {
	var good []Entry
	for _, e := range entries {
		if e.Meta.Status.Good() {
			good = append(good, e)
		}
	}
	sort.Slice(good, func(i, j int) bool { return good[i].Meta.Created.After(good[j].Meta.Created) })
	if limit > 0 && len(good) > limit {
		good = good[:limit]
	}
	return good
}
