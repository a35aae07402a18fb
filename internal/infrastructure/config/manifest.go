package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Manifest lists the processes created under init at boot.
type Manifest struct {
	Processes []ProcessSpec `yaml:"processes" toml:"processes"`
}

// ProcessSpec describes one boot process.
type ProcessSpec struct {
	Name       string `yaml:"name" toml:"name"`
	Tickets    int    `yaml:"tickets" toml:"tickets"`
	ForkPolicy int    `yaml:"fork_policy" toml:"fork_policy"`
}

// Format is a manifest encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatFor picks the encoding from a file extension. Anything that is not
// .toml is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// LoadManifest reads every manifest matching pattern, which may be a plain
// path or a glob such as "boot.d/**/*.yaml". Matches are read in lexical
// order and their processes concatenated.
func LoadManifest(pattern string) (*Manifest, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("failed to read manifest: no file matches %q", pattern)
	}
	sort.Strings(paths)

	var merged Manifest
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		m, err := ParseManifest(data, FormatFor(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		merged.Processes = append(merged.Processes, m.Processes...)
	}
	return &merged, nil
}

// ParseManifest decodes and validates a boot manifest.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	default:
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, p := range m.Processes {
		if p.Name == "" {
			return nil, fmt.Errorf("process %d: name is required", i)
		}
		if p.Tickets <= 0 {
			return nil, fmt.Errorf("process %q: tickets must be positive", p.Name)
		}
		if p.ForkPolicy != 0 && p.ForkPolicy != 1 {
			return nil, fmt.Errorf("process %q: fork_policy must be 0 or 1", p.Name)
		}
	}
	return &m, nil
}
