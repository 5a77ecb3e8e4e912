package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadModuleFile reads a module configuration from a YAML or JSON file.
func LoadModuleFile(path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("read module config: %w", err)
	}
	var m Module
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Module{}, fmt.Errorf("parse module config %s: %w", path, err)
	}
	return m, nil
}
