package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

// ErrNoMonth is returned when no converted roster is stored for a month.
var ErrNoMonth = errors.New("no stored roster for this month")

// BaseDir returns the root data directory (~/.shiftplan).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".shiftplan"), nil
}

// monthFilePath returns the path for the given month's JSON file.
func monthFilePath(base, year, month string) string {
	return filepath.Join(base, year, month+".json")
}

// LoadMonth loads the roster stored for key ("YYYY-MM").
func LoadMonth(base, key string) (model.Month, error) {
	year, month, err := timecalc.ParseMonthKey(key)
	if err != nil {
		return model.Month{}, err
	}
	var m model.Month
	found, err := readJSON(monthFilePath(base, year, month), &m)
	if err != nil {
		return model.Month{}, err
	}
	if !found {
		return model.Month{}, fmt.Errorf("%w: %s", ErrNoMonth, key)
	}
	if m.Entries == nil {
		m.Entries = []model.Entry{}
	}
	return m, nil
}

// SaveMonth atomically writes a converted roster, replacing any earlier
// conversion of the same month.
func SaveMonth(base string, m model.Month) error {
	if _, _, err := timecalc.ParseMonthKey(m.Key()); err != nil {
		return err
	}
	return writeJSON(monthFilePath(base, m.Year, m.Month), m)
}

var monthFileRe = regexp.MustCompile(`^\d{2}\.json$`)
var yearDirRe = regexp.MustCompile(`^\d{4}$`)

// ListMonths returns the keys of all stored months, oldest first.
func ListMonths(base string) ([]string, error) {
	years, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", base, err)
	}

	var keys []string
	for _, y := range years {
		if !y.IsDir() || !yearDirRe.MatchString(y.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, y.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage error reading %s: %w", y.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !monthFileRe.MatchString(f.Name()) {
				continue
			}
			keys = append(keys, y.Name()+"-"+strings.TrimSuffix(f.Name(), ".json"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// LatestMonth returns the most recent stored month.
func LatestMonth(base string) (model.Month, error) {
	keys, err := ListMonths(base)
	if err != nil {
		return model.Month{}, err
	}
	if len(keys) == 0 {
		return model.Month{}, ErrNoMonth
	}
	return LoadMonth(base, keys[len(keys)-1])
}

// Overrides holds user edited mapping presets, keyed by preset name.
type Overrides map[string]map[string]mapping.Value

// overridesPath returns the file holding overrides for one selection.
func overridesPath(base, hospital, profession, area string) string {
	name := fmt.Sprintf("%s_%s_%s.json", hospital, profession, area)
	return filepath.Join(base, "mappings", name)
}

// LoadOverrides returns the user overrides for a selection. Missing files
// yield empty overrides.
func LoadOverrides(base, hospital, profession, area string) (Overrides, error) {
	o := Overrides{}
	if _, err := readJSON(overridesPath(base, hospital, profession, area), &o); err != nil {
		return nil, err
	}
	return o, nil
}

// SaveOverrides atomically writes the user overrides for a selection.
func SaveOverrides(base, hospital, profession, area string, o Overrides) error {
	return writeJSON(overridesPath(base, hospital, profession, area), o)
}

// Table returns the override table for preset, if one was saved.
func (o Overrides) Table(preset string) (*mapping.Table, bool) {
	entries, ok := o[preset]
	if !ok {
		return nil, false
	}
	return mapping.NewTable(entries), true
}

// readJSON decodes path into v. It reports false if the file does not exist.
// Corrupt files are moved aside to <path>.corrupt.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return false, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return true, nil
}

// writeJSON atomically writes v as indented JSON.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: each writer gets its own temp file next to path.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
