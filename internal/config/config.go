package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvGoogleClientID     = "SHIFTPLAN_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "SHIFTPLAN_GOOGLE_CLIENT_SECRET"
	EnvHospital           = "SHIFTPLAN_HOSPITAL"
)

// Config is the root configuration for shiftplan, stored in
// ~/.shiftplan/config.json. The file supports single-line // comments for
// documentation purposes.
type Config struct {
	// Hospital is the institution id, e.g. "st-elisabeth-leipzig".
	Hospital   string `json:"hospital"`
	Profession string `json:"profession"`
	Area       string `json:"area"`
	Preset     string `json:"preset"`
	// Timezone is the IANA timezone of the roster times.
	Timezone string            `json:"timezone"`
	Google   GoogleConfig      `json:"google"`
	Colors   map[string]string `json:"colors"`
}

// GoogleConfig holds Google Calendar sync settings.
type GoogleConfig struct {
	// ClientID and ClientSecret belong to an OAuth client of type
	// "TVs and Limited Input devices".
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// CalendarID is the target calendar. "primary" is the user's main calendar.
	CalendarID string `json:"calendar_id"`
}

const (
	DefaultHospital   = "st-elisabeth-leipzig"
	DefaultProfession = "pflege"
	DefaultArea       = "op"
	DefaultPreset     = "default"
	DefaultTimezone   = "Europe/Berlin"
	DefaultCalendarID = "primary"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Hospital:   DefaultHospital,
		Profession: DefaultProfession,
		Area:       DefaultArea,
		Preset:     DefaultPreset,
		Timezone:   DefaultTimezone,
		Google: GoogleConfig{
			CalendarID: DefaultCalendarID,
		},
		Colors: map[string]string{},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// shiftplan configuration – ~/.shiftplan/config.json
//
// All settings are optional. Run "shiftplan hospitals" to see the available
// institutions and their profession / area / preset names.
{
  // Institution id and mapping selection used by convert, mappings and status.
  "hospital": "st-elisabeth-leipzig",
  "profession": "pflege",
  "area": "op",
  "preset": "default",

  // IANA timezone of the roster times, used for ICS and Google Calendar.
  "timezone": "Europe/Berlin",

  // ── Google Calendar sync ─────────────────────────────────────────────────
  "google": {
    // OAuth client of type "TVs and Limited Input devices" from the Google
    // Cloud console. Can also be set via SHIFTPLAN_GOOGLE_CLIENT_ID and
    // SHIFTPLAN_GOOGLE_CLIENT_SECRET (a .env file in the working directory is read).
    "client_id": "",
    "client_secret": "",

    // Target calendar. Can be overridden with: shiftplan google sync --calendar <id>
    "calendar_id": "primary"
  },

  // Shift code colours (hex) used for Google Calendar events.
  // Institution defaults apply to codes not listed here.
  "colors": {}
}
`

// FilePath returns the path to ~/.shiftplan/config.json.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".shiftplan", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.shiftplan/config.json, creating it with annotated defaults on
// first run, then applies environment overrides. A .env file in the working
// directory is loaded first if present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), fmt.Errorf("reading .env: %w", err)
	}
	path, err := FilePath()
	if err != nil {
		return applyEnv(defaultConfig()), err
	}
	cfg, err := LoadFrom(path)
	return applyEnv(cfg), err
}

// LoadFrom reads the config at path. A missing file is created from the
// annotated template. Environment overrides are not applied.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := defaultConfig()
	if cfg.Hospital == "" {
		cfg.Hospital = def.Hospital
	}
	if cfg.Profession == "" {
		cfg.Profession = def.Profession
	}
	if cfg.Area == "" {
		cfg.Area = def.Area
	}
	if cfg.Preset == "" {
		cfg.Preset = def.Preset
	}
	if cfg.Timezone == "" {
		cfg.Timezone = def.Timezone
	}
	if cfg.Google.CalendarID == "" {
		cfg.Google.CalendarID = def.Google.CalendarID
	}
	if cfg.Colors == nil {
		cfg.Colors = map[string]string{}
	}

	return cfg, nil
}

// applyEnv overlays non-empty environment variables.
func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(EnvGoogleClientID)); v != "" {
		cfg.Google.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGoogleClientSecret)); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHospital)); v != "" {
		cfg.Hospital = v
	}
	return cfg
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
