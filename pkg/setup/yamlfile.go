package setup

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML loads the YAML configuration form. Field names follow the
// directive keys, see the Setup struct tags.
func LoadYAML(path string) (*Setup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	defer f.Close()
	s, err := ParseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("setup: %s: %w", path, err)
	}
	return s, nil
}

// ParseYAML parses the YAML form from a reader. Unknown fields are rejected.
func ParseYAML(r io.Reader) (*Setup, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &Setup{}
	if err := dec.Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}
