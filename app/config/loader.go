package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads the reference data files from a single directory.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads axes.yml, sources.yml and profile.yml and validates the
// result. Sources and axes are required; the profile may be empty.
func (l *Loader) Load() (*Reference, error) {
	ref := &Reference{}

	if err := l.loadFile("axes.yml", ref); err != nil {
		return nil, err
	}
	if err := l.loadFile("sources.yml", ref); err != nil {
		return nil, err
	}
	// profile.yml is optional
	if err := l.loadFile("profile.yml", ref); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := l.validate(ref); err != nil {
		return nil, err
	}

	return ref, nil
}

func (l *Loader) loadFile(name string, ref *Reference) error {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, ref); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return nil
}

func (l *Loader) validate(ref *Reference) error {
	if len(ref.Axes) == 0 {
		return fmt.Errorf("no axes defined in axes.yml")
	}
	for i, a := range ref.Axes {
		if a.Name == "" {
			return fmt.Errorf("axis %d has no name", i)
		}
	}

	if len(ref.Sources) == 0 {
		return fmt.Errorf("no sources defined in sources.yml")
	}
	for i := range ref.Sources {
		s := &ref.Sources[i]
		if s.URL == "" {
			return fmt.Errorf("source %q has no URL", s.Name)
		}
		if s.Tier == 0 {
			s.Tier = 3
		}
	}

	return nil
}
