// Package catalog loads the official product list used to seed the database.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/promoraffle/promoraffle/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

type file struct {
	Products []model.Product `yaml:"products"`
}

// Default returns the embedded official catalog.
func Default() ([]model.Product, error) {
	return Parse(seedYAML)
}

// Load reads a catalog file. An empty path yields the embedded catalog.
func Load(path string) ([]model.Product, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and checks every entry.
func Parse(data []byte) ([]model.Product, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		switch {
		case p.Key == "" || p.DisplayName == "":
			return nil, fmt.Errorf("catalog entry %d: key and display_name required", i)
		case p.TicketMultiplier < 1:
			return nil, fmt.Errorf("catalog entry %s: ticket_multiplier must be at least 1", p.Key)
		case seen[p.Key]:
			return nil, fmt.Errorf("catalog entry %s: duplicate key", p.Key)
		}
		seen[p.Key] = true
	}
	return f.Products, nil
}
