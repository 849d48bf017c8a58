package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// ScriptsDir is the directory of downloaded scripts inside the data dir.
	ScriptsDir = "scripts"
	// CacheDir holds derived artifacts next to the scripts.
	CacheDir = "__cache__"
	// ScriptExt is the extension of a downloaded script.
	ScriptExt = ".go"
	// CacheExt is the extension of a script's cached artifact.
	CacheExt = ".json"
)

// ErrInvalidName is returned for algorithm names that cannot be used as file
// names.
var ErrInvalidName = errors.New("invalid algorithm name")

// Scripts manages the downloaded script files of algorithms.
type Scripts struct {
	dir string
}

// NewScripts returns a script store rooted at dir. The directory is created
// lazily on first write.
func NewScripts(dir string) *Scripts {
	return &Scripts{dir: dir}
}

// Scripts returns the script store of the data directory.
func (s *Store) Scripts() *Scripts {
	return NewScripts(filepath.Join(s.dataDir, ScriptsDir))
}

// Dir returns the scripts directory.
func (s *Scripts) Dir() string { return s.dir }

// ValidateName rejects names that would escape the scripts directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns the script path of the named algorithm.
func (s *Scripts) Path(name string) string {
	return filepath.Join(s.dir, name+ScriptExt)
}

// CachePath returns the cached artifact path of the named algorithm.
func (s *Scripts) CachePath(name string) string {
	return filepath.Join(s.dir, CacheDir, name+CacheExt)
}

// Exists reports whether a regular script file exists for name.
func (s *Scripts) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	fi, err := os.Stat(s.Path(name))
	return err == nil && fi.Mode().IsRegular()
}

// Read returns the script source of name.
func (s *Scripts) Read(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("script %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read script %q: %w", name, err)
	}
	return data, nil
}

// Write stores the script of name from r. The content is written to a
// temporary file first so a failed download never leaves a partial script.
func (s *Scripts) Write(name string, r io.Reader) (int64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create scripts dir: %w", err)
	}

	tmp := filepath.Join(s.dir, "."+name+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp script: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("write script %q: %w", name, err)
	}
	if err := os.Rename(tmp, s.Path(name)); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("install script %q: %w", name, err)
	}
	return n, nil
}

// WriteCache stores a derived artifact for name.
func (s *Scripts) WriteCache(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.dir, CacheDir), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.CachePath(name), data, 0o644); err != nil {
		return fmt.Errorf("write cache %q: %w", name, err)
	}
	return nil
}

// ReadCache returns the derived artifact of name.
func (s *Scripts) ReadCache(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return os.ReadFile(s.CachePath(name))
}

// RemoveResult lists which files Remove deleted and which were absent.
type RemoveResult struct {
	Removed []string
	Missing []string
}

// Remove deletes the script of name and its cached artifact. Absent files
// are reported in Missing, not as errors.
func (s *Scripts) Remove(name string) (RemoveResult, error) {
	var res RemoveResult
	if err := ValidateName(name); err != nil {
		return res, err
	}
	for _, p := range []string{s.Path(name), s.CachePath(name)} {
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			res.Missing = append(res.Missing, p)
			continue
		}
		if err := os.Remove(p); err != nil {
			return res, fmt.Errorf("remove %s: %w", p, err)
		}
		res.Removed = append(res.Removed, p)
	}
	return res, nil
}
