// Package rcconfig loads the shell's optional startup file. The format is
// JSON with comments (jsonc), read the same way internal/importer reads
// Claude settings in the teacher pack: strip comments, then unmarshal with
// encoding/json.
package rcconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

const defaultHistoryLimit = 100

// RCConfig holds the shell's startup configuration.
type RCConfig struct {
	Aliases      map[string]string `json:"aliases,omitempty"`
	Env          map[string]string `json:"env,omitempty"`
	Prompt       string            `json:"prompt,omitempty"`
	HistoryLimit int               `json:"historyLimit,omitempty"`
}

// DefaultPath returns ~/.rillrc.jsonc, or "" if the home directory cannot
// be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rillrc.jsonc")
}

// Load reads path (jsonc) into an RCConfig. A missing file is not an error
// -- it returns the defaults (HistoryLimit 100, every other field empty). A
// malformed file is reported as an
// error so the caller can log it to stderr and continue with defaults; it
// must never abort shell startup (see the original design's error
// taxonomy: only catastrophic initialization failures do that).
func Load(path string) (*RCConfig, error) {
	cfg := &RCConfig{HistoryLimit: defaultHistoryLimit}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path is a user-supplied rc file path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read rc file %s: %w", path, err)
	}

	clean := jsonc.ToJSON(raw)
	if err := json.Unmarshal(clean, cfg); err != nil {
		return &RCConfig{HistoryLimit: defaultHistoryLimit}, fmt.Errorf("parse rc file %s: %w", path, err)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return cfg, nil
}
