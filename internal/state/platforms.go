package state

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var platformsYAML []byte

type platformTable struct {
	Aliases map[string][]string `yaml:"aliases"`
	Systems []string            `yaml:"systems"`
}

var platforms = loadPlatformTable()

func loadPlatformTable() platformTable {
	var table platformTable
	if err := yaml.Unmarshal(platformsYAML, &table); err != nil {
		panic(fmt.Sprintf("invalid embedded platform table: %v", err))
	}
	return table
}

// Systems returns every system nixy generates flakes for.
func Systems() []string {
	return slices.Clone(platforms.Systems)
}

// NormalizePlatforms expands aliases like "darwin" into concrete system
// names, dropping case and duplicates. The result is sorted. An unknown
// name is an error. Empty input yields nil.
func NormalizePlatforms(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(system string) {
		if !seen[system] {
			seen[system] = true
			out = append(out, system)
		}
	}

	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if expansion, ok := platforms.Aliases[lower]; ok {
			for _, system := range expansion {
				add(system)
			}
			continue
		}
		if slices.Contains(platforms.Systems, lower) {
			add(lower)
			continue
		}
		return nil, fmt.Errorf("unknown platform %q (use one of: darwin, macos, linux, %s)",
			name, strings.Join(platforms.Systems, ", "))
	}

	slices.Sort(out)
	return out, nil
}
