/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package catalog serves the read-only story content: universes, the themes
// filed under each universe, and the word lists handed to the editor.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

var (
	ErrUnknownUniverse = errors.New("unknown universe")
	ErrUnknownTheme    = errors.New("unknown theme")
)

// Catalog is the lookup surface the game consumes. Implementations must not
// change once handed out.
type Catalog interface {
	Universes() []Universe
	Themes(universe string) ([]Theme, error)
	Theme(key string) (Theme, error)
	Words(universe string) []string
	Title(key string) string
}

type Universe struct {
	Key    string   `json:"key" yaml:"key"`
	Title  string   `json:"title" yaml:"title"`
	Words  []string `json:"words,omitempty" yaml:"words"`
	Themes []Theme  `json:"themes,omitempty" yaml:"themes"`
}

type Theme struct {
	Key     string `json:"key" yaml:"key"`
	Title   string `json:"title" yaml:"title"`
	Pitch   string `json:"pitch" yaml:"pitch"`
	Summary string `json:"summary,omitempty" yaml:"summary"`
}

type document struct {
	Universes []Universe `json:"universes" yaml:"universes"`
}

//go:embed universes.json
var defaultData []byte

// Static is a Catalog backed by an in-memory document.
type Static struct {
	universes []Universe
	byKey     map[string]int // universe key -> index
	themes    map[string]Theme
}

// Default returns the catalog compiled into the binary.
func Default() *Static {
	c, err := Parse(defaultData, ".json")
	if err != nil {
		panic("catalog: embedded catalog is invalid: " + err.Error())
	}
	return c
}

// Load reads a catalog from a .json, .yaml or .yml file.
func Load(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data according to the file extension ext.
func Parse(data []byte, ext string) (*Static, error) {
	var doc document

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	return New(doc.Universes)
}

// New builds a catalog from universes, in the given order. Universe keys must
// be unique, and so must theme keys across all universes.
func New(universes []Universe) (*Static, error) {
	c := &Static{
		universes: universes,
		byKey:     make(map[string]int, len(universes)),
		themes:    make(map[string]Theme),
	}

	for i, u := range universes {
		if u.Key == "" {
			return nil, fmt.Errorf("universe %d has no key", i)
		}
		if _, dup := c.byKey[u.Key]; dup {
			return nil, fmt.Errorf("duplicate universe %q", u.Key)
		}
		c.byKey[u.Key] = i

		for _, t := range u.Themes {
			if t.Key == "" {
				return nil, fmt.Errorf("universe %q has a theme with no key", u.Key)
			}
			if _, dup := c.themes[t.Key]; dup {
				return nil, fmt.Errorf("duplicate theme %q", t.Key)
			}
			c.themes[t.Key] = t
		}
	}

	return c, nil
}

// Universes returns the universes that have at least one theme, without
// their themes or words.
func (c *Static) Universes() []Universe {
	out := make([]Universe, 0, len(c.universes))
	for _, u := range c.universes {
		if len(u.Themes) == 0 {
			continue
		}
		out = append(out, Universe{Key: u.Key, Title: u.Title})
	}
	return out
}

func (c *Static) Themes(universe string) ([]Theme, error) {
	i, ok := c.byKey[universe]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUniverse, universe)
	}

	out := make([]Theme, len(c.universes[i].Themes))
	copy(out, c.universes[i].Themes)
	return out, nil
}

func (c *Static) Theme(key string) (Theme, error) {
	t, ok := c.themes[key]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, key)
	}
	return t, nil
}

func (c *Static) Words(universe string) []string {
	i, ok := c.byKey[universe]
	if !ok {
		return nil
	}

	out := make([]string, len(c.universes[i].Words))
	copy(out, c.universes[i].Words)
	return out
}

// Title returns the title of a universe or theme, or "" if key is unknown.
func (c *Static) Title(key string) string {
	if i, ok := c.byKey[key]; ok {
		return c.universes[i].Title
	}
	if t, ok := c.themes[key]; ok {
		return t.Title
	}
	return ""
}
