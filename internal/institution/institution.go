// Package institution is the registry of supported hospitals. Each hospital
// is described by one YAML document: its detection fingerprints, its line
// patterns and its shift mapping presets.
package institution

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/shiftplan/internal/classify"
	"github.com/Tiliavir/shiftplan/internal/mapping"
)

//go:embed institutions
var builtin embed.FS

var (
	ErrUnknown   = errors.New("unknown institution")
	ErrNoPreset  = errors.New("no such mapping preset")
	ErrDuplicate = errors.New("duplicate institution id")
)

// DefaultPreset is used when no preset is selected.
const DefaultPreset = "default"

// Presets maps preset name to its mapping entries.
type Presets map[string]map[string]mapping.Value

// Institution is one hospital definition.
type Institution struct {
	ID           string                        `yaml:"id"`
	Name         string                        `yaml:"name"`
	Fingerprints []string                      `yaml:"fingerprints"`
	Patterns     classify.Patterns             `yaml:"patterns"`
	Groups       map[string]map[string]Presets `yaml:"groups"`
	Colors       map[string]string             `yaml:"colors"`

	rules *classify.RuleSet
}

// Classifier returns the compiled line classifier.
func (i *Institution) Classifier() classify.Classifier {
	return i.rules
}

// Professions returns the profession groups in sorted order.
func (i *Institution) Professions() []string {
	return sortedKeys(i.Groups)
}

// Areas returns the areas of a profession in sorted order.
func (i *Institution) Areas(profession string) []string {
	return sortedKeys(i.Groups[profession])
}

// Presets returns the preset names of an area in sorted order.
func (i *Institution) Presets(profession, area string) []string {
	return sortedKeys(i.Groups[profession][area])
}

// Table returns a fresh mapping table for the given selection. An empty
// preset selects DefaultPreset.
func (i *Institution) Table(profession, area, preset string) (*mapping.Table, error) {
	if preset == "" {
		preset = DefaultPreset
	}
	entries, ok := i.Groups[profession][area][preset]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s/%s", ErrNoPreset, i.ID, profession, area, preset)
	}
	return mapping.NewTable(entries), nil
}

func (i *Institution) validate() error {
	if i.ID == "" {
		return errors.New("institution without id")
	}
	if i.Name == "" {
		i.Name = i.ID
	}
	rules, err := classify.Compile(i.Patterns)
	if err != nil {
		return fmt.Errorf("institution %s: %w", i.ID, err)
	}
	i.rules = rules
	for prof, areas := range i.Groups {
		for area, presets := range areas {
			for preset, entries := range presets {
				for key := range entries {
					if !mapping.ValidKey(key) {
						return fmt.Errorf("institution %s: %s/%s/%s: invalid mapping key %q", i.ID, prof, area, preset, key)
					}
				}
			}
		}
	}
	return nil
}

// Registry holds institutions keyed by id. It is read-only after loading.
type Registry struct {
	byID  map[string]*Institution
	order []string

	matcher *ahocorasick.Matcher
	// owners[n] lists the institutions declaring fingerprint n.
	owners [][]string
}

// Default loads the institutions compiled into the binary.
func Default() (*Registry, error) {
	return Load(builtin, "institutions")
}

// Load reads every .yaml/.yml file in dir of fsys.
func Load(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading institutions: %w", err)
	}

	var list []*Institution
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		inst, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		list = append(list, inst)
	}
	return New(list...)
}

// Parse decodes and validates one institution document.
func Parse(data []byte) (*Institution, error) {
	var inst Institution
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("decoding institution: %w", err)
	}
	if err := inst.validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// New builds a registry from already parsed institutions.
func New(list ...*Institution) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Institution, len(list))}

	index := map[string]int{}
	var patterns []string
	for _, inst := range list {
		if inst.rules == nil {
			if err := inst.validate(); err != nil {
				return nil, err
			}
		}
		if _, dup := r.byID[inst.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, inst.ID)
		}
		r.byID[inst.ID] = inst
		r.order = append(r.order, inst.ID)

		for _, fp := range inst.Fingerprints {
			if fp == "" {
				continue
			}
			n, ok := index[fp]
			if !ok {
				n = len(patterns)
				index[fp] = n
				patterns = append(patterns, fp)
				r.owners = append(r.owners, nil)
			}
			r.owners[n] = append(r.owners[n], inst.ID)
		}
	}
	sort.Strings(r.order)

	if len(patterns) > 0 {
		r.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return r, nil
}

// Get returns the institution with the given id.
func (r *Registry) Get(id string) (*Institution, error) {
	inst, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return inst, nil
}

// List returns all institutions ordered by id.
func (r *Registry) List() []*Institution {
	out := make([]*Institution, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Find returns institutions whose id or name fuzzily contains query, best
// match first. An empty query returns all institutions.
func (r *Registry) Find(query string) []*Institution {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List()
	}

	targets := make([]string, 0, 2*len(r.order))
	owner := make([]string, 0, 2*len(r.order))
	for _, id := range r.order {
		targets = append(targets, id, r.byID[id].Name)
		owner = append(owner, id, id)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	seen := map[string]bool{}
	var out []*Institution
	for _, rank := range ranks {
		id := owner[rank.OriginalIndex]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, r.byID[id])
	}
	return out
}

// Detection is one candidate of Detect.
type Detection struct {
	Institution *Institution
	Hits        int
}

// Detect scores each institution by how many of its fingerprints occur in
// text and returns the candidates with at least one hit, best first. Ties go
// to the institution with fewer fingerprints, then by id.
func (r *Registry) Detect(text string) []Detection {
	if r.matcher == nil {
		return nil
	}

	hits := map[string]int{}
	for _, n := range r.matcher.MatchThreadSafe([]byte(text)) {
		for _, id := range r.owners[n] {
			hits[id]++
		}
	}

	out := make([]Detection, 0, len(hits))
	for id, h := range hits {
		out = append(out, Detection{Institution: r.byID[id], Hits: h})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if len(a.Institution.Fingerprints) != len(b.Institution.Fingerprints) {
			return len(a.Institution.Fingerprints) < len(b.Institution.Fingerprints)
		}
		return a.Institution.ID < b.Institution.ID
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
