package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryMap maps a platform name (instagram, tiktok, ...) to the provider catalog
// category names that belong to it.
type CategoryMap map[string][]string

// LoadCategoryMap reads the platform category file. An empty path yields an empty map.
func LoadCategoryMap(path string) (CategoryMap, error) {
	if path == "" {
		return CategoryMap{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category map: %w", err)
	}

	var file struct {
		Platforms map[string][]string `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category map: %w", err)
	}

	categories := make(CategoryMap, len(file.Platforms))
	for platform, names := range file.Platforms {
		categories[strings.ToLower(platform)] = names
	}
	return categories, nil
}

// Categories returns the category names for a platform, case-insensitively.
func (m CategoryMap) Categories(platform string) []string {
	return m[strings.ToLower(platform)]
}
