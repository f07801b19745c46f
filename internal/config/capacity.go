package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CapacityPolicy estimates session capacity from a substring lookup
// table over location and track names. It is a deliberately crude
// placeholder for a real registration system, kept pluggable so a YAML
// file can override the built-in table.
type CapacityPolicy struct {
	Default int             `yaml:"default"`
	Entries []CapacityEntry `yaml:"entries"`
}

type CapacityEntry struct {
	Match    string `yaml:"match"`
	Capacity int    `yaml:"capacity"`
}

// DefaultCapacityPolicy is the built-in venue table.
func DefaultCapacityPolicy() CapacityPolicy {
	return CapacityPolicy{
		Default: 100,
		Entries: []CapacityEntry{
			{Match: "ballroom", Capacity: 500},
			{Match: "keynote", Capacity: 800},
			{Match: "expo", Capacity: 1000},
			{Match: "theater", Capacity: 150},
			{Match: "meeting room", Capacity: 40},
			{Match: "boardroom", Capacity: 20},
			{Match: "terrace", Capacity: 200},
			{Match: "workshop", Capacity: 60},
		},
	}
}

// LoadCapacityPolicy reads a YAML policy file, falling back to the
// built-in table when path is empty.
func LoadCapacityPolicy(path string) (CapacityPolicy, error) {
	if path == "" {
		return DefaultCapacityPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CapacityPolicy{}, fmt.Errorf("read capacity table: %w", err)
	}
	var policy CapacityPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return CapacityPolicy{}, fmt.Errorf("parse capacity table: %w", err)
	}
	if policy.Default <= 0 {
		policy.Default = DefaultCapacityPolicy().Default
	}
	return policy, nil
}

// EstimateCapacity returns the first entry whose match string appears in
// the location or track name (case-insensitive), else the default.
func (p CapacityPolicy) EstimateCapacity(location, track string) int {
	haystack := strings.ToLower(location + " " + track)
	for _, entry := range p.Entries {
		if entry.Match != "" && strings.Contains(haystack, entry.Match) {
			return entry.Capacity
		}
	}
	return p.Default
}
