package ingest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"news-notifier/internal/domain/entity"
)

// CategoryMapping maps lower-cased external feed tags to internal category names.
type CategoryMapping map[string]string

// DefaultCategoryMapping returns the built-in tag table.
func DefaultCategoryMapping() CategoryMapping {
	return CategoryMapping{
		"tech":          "Technology",
		"technology":    "Technology",
		"science":       "Science",
		"business":      "Business",
		"finance":       "Business",
		"economy":       "Business",
		"sports":        "Sports",
		"sport":         "Sports",
		"entertainment": "Entertainment",
		"health":        "Health",
		"politics":      "Politics",
		"world":         "World",
		"general":       "General",
		"food":          "Food",
		"travel":        "Travel",
	}
}

type categoryMappingFile struct {
	Mappings map[string]string `yaml:"mappings"`
}

// LoadCategoryMapping reads a YAML file of the form
//
//	mappings:
//	  ai: Technology
//	  markets: Business
//
// and layers it over the defaults. Keys are matched case-insensitively.
func LoadCategoryMapping(path string) (CategoryMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}
	return ParseCategoryMapping(data)
}

// ParseCategoryMapping parses YAML mapping data layered over the defaults.
func ParseCategoryMapping(data []byte) (CategoryMapping, error) {
	var file categoryMappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse category mapping: %w", err)
	}

	mapping := DefaultCategoryMapping()
	for tag, name := range file.Mappings {
		tag = strings.ToLower(strings.TrimSpace(tag))
		name = strings.TrimSpace(name)
		if tag == "" || name == "" {
			return nil, fmt.Errorf("parse category mapping: empty tag or category in %q: %q", tag, name)
		}
		mapping[tag] = name
	}
	return mapping, nil
}

// CategoryIndex looks up active categories by lower-cased name.
type CategoryIndex map[string]*entity.Category

func NewCategoryIndex(categories []*entity.Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		if c.Active {
			idx[strings.ToLower(c.Name)] = c
		}
	}
	return idx
}

// Resolve maps tags to distinct active categories in tag order. When nothing
// matches, the fallback category is used if it is active; otherwise the result
// is empty.
func (m CategoryMapping) Resolve(tags []string, active CategoryIndex, fallback string) []*entity.Category {
	var result []*entity.Category
	seen := make(map[int64]bool)
	for _, tag := range tags {
		name, ok := m[strings.ToLower(strings.TrimSpace(tag))]
		if !ok {
			continue
		}
		c, ok := active[strings.ToLower(name)]
		if !ok || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		result = append(result, c)
	}

	if len(result) == 0 && fallback != "" {
		if c, ok := active[strings.ToLower(fallback)]; ok {
			result = append(result, c)
		}
	}
	return result
}
