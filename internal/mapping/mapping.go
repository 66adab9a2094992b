// Package mapping holds shift mapping tables: lookups from a time-range key
// ("HH:MM-HH:MM") or a special marker ("SPECIAL:<name>") to a shift code.
package mapping

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpecialPrefix marks keys for all-day categories.
const SpecialPrefix = "SPECIAL:"

var rangeKeyRe = regexp.MustCompile(`^\d{2}:\d{2}-\d{2}:\d{2}$`)

// Value is the code a key resolves to and whether that code has been
// confirmed against a real roster.
type Value struct {
	Code      string `json:"code" yaml:"code"`
	Validated bool   `json:"validated" yaml:"validated"`
}

// UnmarshalYAML accepts {code, validated} mappings and legacy plain string
// codes, which load as unvalidated.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		v.Code = node.Value
		v.Validated = false
		return nil
	}
	var w wireValue
	if err := node.Decode(&w); err != nil {
		return err
	}
	*v = w.value()
	return nil
}

// UnmarshalJSON accepts both {"code", "validated"} objects and legacy plain
// string codes, which load as unvalidated.
func (v *Value) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		v.Code = code
		v.Validated = false
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = w.value()
	return nil
}

// wireValue also reads the older "isValidated" spelling.
type wireValue struct {
	Code        string `json:"code" yaml:"code"`
	Validated   bool   `json:"validated" yaml:"validated"`
	IsValidated bool   `json:"isValidated" yaml:"isValidated"`
}

func (w wireValue) value() Value {
	return Value{Code: w.Code, Validated: w.Validated || w.IsValidated}
}

// RangeKey builds the lookup key for a time range.
func RangeKey(start, end string) string {
	return start + "-" + end
}

// SpecialKey builds the lookup key for an all-day category.
func SpecialKey(category string) string {
	return SpecialPrefix + category
}

// ValidKey reports whether key is a time-range key or a special key.
func ValidKey(key string) bool {
	if rangeKeyRe.MatchString(key) {
		return true
	}
	return strings.HasPrefix(key, SpecialPrefix) && len(key) > len(SpecialPrefix)
}

// Table is a read-only lookup during parsing. Mutating methods exist for
// editing user overrides and must not race with lookups.
type Table struct {
	entries map[string]Value
}

// NewTable copies m into a new table. A nil map yields an empty table.
func NewTable(m map[string]Value) *Table {
	t := &Table{entries: make(map[string]Value, len(m))}
	for k, v := range m {
		t.entries[k] = v
	}
	return t
}

// Lookup returns the value stored under key.
func (t *Table) Lookup(key string) (Value, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Len returns the number of keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns all keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the table contents.
func (t *Table) Map() map[string]Value {
	out := make(map[string]Value, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	return NewTable(t.entries)
}

// Set adds or replaces the value for key.
func (t *Table) Set(key string, v Value) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid mapping key %q: want HH:MM-HH:MM or %s<name>", key, SpecialPrefix)
	}
	if strings.TrimSpace(v.Code) == "" {
		return fmt.Errorf("empty code for mapping key %q", key)
	}
	t.entries[key] = v
	return nil
}

// Delete removes key and reports whether it was present.
func (t *Table) Delete(key string) bool {
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

// Rename moves the value stored under oldKey to newKey with a new code.
// The validated flag is carried over.
func (t *Table) Rename(oldKey, newKey, code string) error {
	v, ok := t.entries[oldKey]
	if !ok {
		return fmt.Errorf("mapping key %q not found", oldKey)
	}
	v.Code = code
	if err := t.Set(newKey, v); err != nil {
		return err
	}
	if oldKey != newKey {
		delete(t.entries, oldKey)
	}
	return nil
}

// Conflict describes a code that appears under several keys with
// differing validated flags.
type Conflict struct {
	Code        string
	Validated   []string
	Unvalidated []string
}

// Conflicts lists codes whose keys disagree on the validated flag.
// Tables are expected to be free of conflicts but this is not enforced.
func (t *Table) Conflicts() []Conflict {
	byCode := map[string]*Conflict{}
	for _, key := range t.Keys() {
		v := t.entries[key]
		c, ok := byCode[v.Code]
		if !ok {
			c = &Conflict{Code: v.Code}
			byCode[v.Code] = c
		}
		if v.Validated {
			c.Validated = append(c.Validated, key)
		} else {
			c.Unvalidated = append(c.Unvalidated, key)
		}
	}

	var out []Conflict
	for _, c := range byCode {
		if len(c.Validated) > 0 && len(c.Unvalidated) > 0 {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
