package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanshika/downline/internal/domain"
)

const (
	MembersFile = "members.json"
	DealsFile   = "deals.json"
)

// Snapshot is the on-disk form of an agency: its directory and its deals.
type Snapshot struct {
	Members []domain.Member `json:"members"`
	Deals   []domain.Deal   `json:"deals"`
}

// Load reads members.json and deals.json from dir. A missing deals file
// yields an empty deal list; the members file is required.
func Load(dir string) (Snapshot, error) {
	var snap Snapshot

	if err := readJSON(filepath.Join(dir, MembersFile), &snap.Members); err != nil {
		return Snapshot{}, err
	}

	err := readJSON(filepath.Join(dir, DealsFile), &snap.Deals)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, err
	}
	return snap, nil
}

// Write serializes the snapshot into members.json and deals.json under dir.
func Write(snap Snapshot, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, MembersFile), nonNil(snap.Members)); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, DealsFile), nonNil(snap.Deals))
}

func readJSON(path string, into any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return decode(file, path, into)
}

// decode keeps numeric premiums as json.Number so no precision is lost
// before premium coercion.
func decode(r io.Reader, name string, into any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("decode json for %s: %w", name, err)
	}
	return nil
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
