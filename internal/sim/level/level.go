// Package level reads level documents and builds worlds from them.
//
// A level is a YAML document whose rows form a character grid. Every non-space
// character is a placement resolved through the things catalog.
package level

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var ErrBadLevel = errors.New("bad level")

//go:embed level.schema.json
var levelSchemaJSON string

var levelSchema = jsonschema.MustCompileString("level.schema.json", levelSchemaJSON)

type Doc struct {
	ID    string            `yaml:"id" json:"id"`
	Name  string            `yaml:"name,omitempty" json:"name,omitempty"`
	Next  string            `yaml:"next,omitempty" json:"next,omitempty"`
	Goals map[string]string `yaml:"goals,omitempty" json:"goals,omitempty"`
	// Start is the player's spawn cell; empty uses the tuning default.
	Start []float64 `yaml:"start,omitempty" json:"start,omitempty"`
	Rows  []string  `yaml:"rows" json:"rows"`
}

// Placement is one grid symbol. Col and Row count cells from the top-left.
type Placement struct {
	Symbol rune
	Col    int
	Row    int
}

type Level struct {
	Doc
	Placements []Placement
	Cols, RowCount int
	// Source is the file the level was read from, if any.
	Source string
}

// Parse decodes and validates a level document.
func Parse(raw []byte) (*Level, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	if err := levelSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}

	var l Level
	if err := yaml.Unmarshal(raw, &l.Doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	for row, line := range l.Doc.Rows {
		col := 0
		for _, r := range line {
			if r != ' ' && r != '.' {
				l.Placements = append(l.Placements, Placement{Symbol: r, Col: col, Row: row})
			}
			col++
		}
		if col > l.Cols {
			l.Cols = col
		}
	}
	l.RowCount = len(l.Doc.Rows)
	return &l, nil
}

func ReadFile(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	l.Source = path
	return l, nil
}

// GoalTarget is the level a goal block of kind leads to.
func (l *Level) GoalTarget(kind string) string {
	if next, ok := l.Goals[kind]; ok {
		return next
	}
	return l.Next
}

// PixelSize is the level's extent in world pixels.
func (l *Level) PixelSize(block float64) (float64, float64) {
	return float64(l.Cols) * block, float64(l.RowCount) * block
}

// Set is a collection of levels keyed by id.
type Set struct {
	byID map[string]*Level
}

func NewSet(levels ...*Level) (*Set, error) {
	s := &Set{byID: map[string]*Level{}}
	for _, l := range levels {
		if _, dup := s.byID[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate level id %q", ErrBadLevel, l.ID)
		}
		s.byID[l.ID] = l
	}
	for _, l := range levels {
		targets := []string{l.Next}
		for _, t := range l.Goals {
			targets = append(targets, t)
		}
		for _, t := range targets {
			if t == "" {
				continue
			}
			if _, ok := s.byID[t]; !ok {
				return nil, fmt.Errorf("%w: level %q leads to unknown level %q", ErrBadLevel, l.ID, t)
			}
		}
	}
	return s, nil
}

// LoadDir reads every *.yaml level in dir.
func LoadDir(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	levels := make([]*Level, 0, len(files))
	for _, f := range files {
		l, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return NewSet(levels...)
}

func (s *Set) Get(id string) (*Level, bool) {
	l, ok := s.byID[id]
	return l, ok
}

// Add inserts or replaces a level, e.g. one loaded from an arbitrary file.
func (s *Set) Add(l *Level) {
	s.byID[l.ID] = l
}

func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
