// Package snapshot persists the artifacts of an analysis run as indented JSON
// files in one output directory.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/715d/unusedasset/pkg/classes"
	"github.com/715d/unusedasset/pkg/inventory"
)

// Artifact file names.
const (
	FilesFile     = "filtered_files.json"
	ObjectsFile   = "filtered_objects.json"
	ResourcesFile = "filtered_resources.json"
	UnusedFile    = "unused_assets.json"
)

var (
	// ErrMissing is returned when a requested snapshot does not exist.
	ErrMissing = errors.New("snapshot missing")

	// ErrMalformed is returned when a snapshot cannot be decoded.
	ErrMalformed = errors.New("snapshot malformed")
)

// Store reads and writes snapshots under Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the location of the named artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// WriteFiles persists the filtered source file list.
func (s *Store) WriteFiles(files []string) error {
	if files == nil {
		files = []string{}
	}
	return s.write(FilesFile, files)
}

// ReadFiles loads the filtered source file list.
func (s *Store) ReadFiles() ([]string, error) {
	var files []string
	if err := s.read(FilesFile, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// WriteObjects persists the extracted type names.
func (s *Store) WriteObjects(objs *classes.Objects) error {
	return s.write(ObjectsFile, objs)
}

// ReadObjects loads the extracted type names.
func (s *Store) ReadObjects() (*classes.Objects, error) {
	objs := &classes.Objects{}
	if err := s.read(ObjectsFile, objs); err != nil {
		return nil, err
	}
	return objs, nil
}

// WriteInventory persists the resource inventory.
func (s *Store) WriteInventory(inv *inventory.Inventory) error {
	return s.write(ResourcesFile, inv)
}

// ReadInventory loads the resource inventory. Absent categories decode as
// empty maps.
func (s *Store) ReadInventory() (*inventory.Inventory, error) {
	inv := inventory.New()
	if err := s.read(ResourcesFile, inv); err != nil {
		return nil, err
	}
	if inv.Imagesets == nil {
		inv.Imagesets = make(map[string]string)
	}
	if inv.Others == nil {
		inv.Others = make(map[string]map[string]string)
	}
	return inv, nil
}

// WriteUnused persists the unused resource names.
func (s *Store) WriteUnused(names []string) error {
	if names == nil {
		names = []string{}
	}
	return s.write(UnusedFile, names)
}

// ReadUnused loads the unused resource names.
func (s *Store) ReadUnused() ([]string, error) {
	var names []string
	if err := s.read(UnusedFile, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// write encodes v into a temporary file and renames it into place, so a
// reader never observes a partial snapshot.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissing, s.Path(name))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, s.Path(name), err)
	}
	return nil
}
