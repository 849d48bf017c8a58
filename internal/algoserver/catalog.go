// Package algoserver is a reference implementation of the algorithms API
// backed by a directory of scripts.
//
// A catalog directory holds, for every algorithm, a <name>.yaml metadata
// file and a <name>.go script:
//
//	name: sum
//	title: Sum
//	description: Adds numbers
//	parameters:
//	  - name: xs
//	    title: Numbers
//	    data_shape: list
//	    data_type: int
//	    default_value: [1, 2]
//	outputs:
//	  - name: total
//	    data_shape: scalar
//	    data_type: int
package algoserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/storage"
	"github.com/wagnerlima/algolab/internal/value"
)

type catalogEntry struct {
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Parameters  []catalogField `yaml:"parameters"`
	Outputs     []catalogField `yaml:"outputs"`
}

type catalogField struct {
	Name         string `yaml:"name"`
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	DataShape    string `yaml:"data_shape"`
	DataType     string `yaml:"data_type"`
	DefaultValue any    `yaml:"default_value"`
	Optional     bool   `yaml:"optional"`
}

// Catalog is the set of algorithms served.
type Catalog struct {
	dir string

	mu      sync.RWMutex
	entries map[string]models.AlgorithmDetailsResult
}

// LoadCatalog reads every <name>.yaml in dir.
func LoadCatalog(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog directory.
func (c *Catalog) Reload() error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("scan catalog: %w", err)
	}

	entries := make(map[string]models.AlgorithmDetailsResult, len(matches))
	for _, path := range matches {
		d, err := readEntry(path)
		if err != nil {
			return err
		}
		if _, dup := entries[d.Name]; dup {
			return fmt.Errorf("catalog: duplicate algorithm %q in %s", d.Name, path)
		}
		entries[d.Name] = d
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

func readEntry(path string) (models.AlgorithmDetailsResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.AlgorithmDetailsResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	var e catalogEntry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return models.AlgorithmDetailsResult{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if e.Name == "" {
		e.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	if err := storage.ValidateName(e.Name); err != nil {
		return models.AlgorithmDetailsResult{}, fmt.Errorf("%s: %w", path, err)
	}

	d := models.AlgorithmDetailsResult{
		Name:        e.Name,
		Title:       e.Title,
		Description: e.Description,
		Parameters:  make([]models.DataElement, 0, len(e.Parameters)),
		Outputs:     make([]models.DataElement, 0, len(e.Outputs)),
	}
	for _, f := range e.Parameters {
		el, err := f.element()
		if err != nil {
			return models.AlgorithmDetailsResult{}, fmt.Errorf("%s: parameter %s: %w", path, f.Name, err)
		}
		d.Parameters = append(d.Parameters, el)
	}
	for _, f := range e.Outputs {
		el, err := f.element()
		if err != nil {
			return models.AlgorithmDetailsResult{}, fmt.Errorf("%s: output %s: %w", path, f.Name, err)
		}
		d.Outputs = append(d.Outputs, el)
	}
	return d, nil
}

func (f catalogField) element() (models.DataElement, error) {
	def, err := value.FromAny(f.DefaultValue)
	if err != nil {
		return models.DataElement{}, err
	}
	return models.DataElement{
		Name:         f.Name,
		Title:        f.Title,
		Description:  f.Description,
		DataShape:    models.DataShape(f.DataShape),
		DataType:     models.DataType(f.DataType),
		DefaultValue: def,
		Optional:     f.Optional,
	}, nil
}

// List returns the catalog summary ordered by name.
func (c *Catalog) List() []models.Algorithm {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Algorithm, 0, len(c.entries))
	for _, d := range c.entries {
		out = append(out, models.Algorithm{Name: d.Name, Title: d.Title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the details of name.
func (c *Catalog) Get(name string) (models.AlgorithmDetailsResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[name]
	if !ok {
		return models.AlgorithmDetailsResult{}, false
	}
	return d.Clone(), true
}

// Scripts returns the script store over the catalog directory.
func (c *Catalog) Scripts() *storage.Scripts {
	return storage.NewScripts(c.dir)
}
