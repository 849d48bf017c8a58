package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScriptsWriteAndRead(t *testing.T) {
	s := NewScripts(filepath.Join(tempDir(t), ScriptsDir))

	n, err := s.Write("sum", strings.NewReader("package main\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 13 {
		t.Errorf("Write = %d bytes, want 13", n)
	}
	if !s.Exists("sum") {
		t.Error("Script should exist after Write")
	}

	data, err := s.Read("sum")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "package main\n" {
		t.Errorf("Read = %q", data)
	}

	entries, _ := os.ReadDir(s.Dir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temp file left behind: %s", e.Name())
		}
	}
}

func TestScriptsReadMissing(t *testing.T) {
	s := NewScripts(tempDir(t))
	_, err := s.Read("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestScriptsRemove(t *testing.T) {
	s := NewScripts(filepath.Join(tempDir(t), ScriptsDir))
	if _, err := s.Write("sum", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteCache("sum", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	res, err := s.Remove("sum")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(res.Removed) != 2 || len(res.Missing) != 0 {
		t.Errorf("Removed %v, missing %v; want 2 removed", res.Removed, res.Missing)
	}
	if s.Exists("sum") {
		t.Error("Script should be gone")
	}

	res, err = s.Remove("sum")
	if err != nil {
		t.Fatalf("Remove again: %v", err)
	}
	if len(res.Missing) != 2 {
		t.Errorf("Missing = %v, want both files", res.Missing)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "../etc", `a\b`, "a/b"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
	for _, name := range []string{"sum", "matrix_mult", "v1.2"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}
