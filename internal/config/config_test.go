package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shiftplan", "config.json")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom on first run: %v", err)
	}
	if cfg.Hospital != DefaultHospital {
		t.Errorf("Hospital = %q, want %q", cfg.Hospital, DefaultHospital)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}

	// The written template must itself parse to the defaults.
	again, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom on template: %v", err)
	}
	if again.Timezone != DefaultTimezone || again.Google.CalendarID != DefaultCalendarID {
		t.Errorf("template parsed to %+v", again)
	}
}

func TestLoadFromFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `// partial config
{
  "hospital": "st-elisabeth-leipzig-legacy",
  // only the area differs
  "area": "station1",
  "colors": {"F": "#22c55e"}
}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Hospital != "st-elisabeth-leipzig-legacy" || cfg.Area != "station1" {
		t.Errorf("explicit values lost: %+v", cfg)
	}
	if cfg.Profession != DefaultProfession || cfg.Preset != DefaultPreset {
		t.Errorf("defaults not filled: %+v", cfg)
	}
	if cfg.Colors["F"] != "#22c55e" {
		t.Errorf("Colors = %v", cfg.Colors)
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{ hospital: x }"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvGoogleClientID, "id-from-env")
	t.Setenv(EnvGoogleClientSecret, "")
	t.Setenv(EnvHospital, " st-elisabeth-leipzig-legacy ")

	cfg := defaultConfig()
	cfg.Google.ClientSecret = "from-file"
	cfg = applyEnv(cfg)

	if cfg.Google.ClientID != "id-from-env" {
		t.Errorf("ClientID = %q", cfg.Google.ClientID)
	}
	if cfg.Google.ClientSecret != "from-file" {
		t.Errorf("empty env must not override, ClientSecret = %q", cfg.Google.ClientSecret)
	}
	if cfg.Hospital != "st-elisabeth-leipzig-legacy" {
		t.Errorf("Hospital = %q", cfg.Hospital)
	}
}
