// Package scenario describes and runs placement workloads for the
// emplace command.
package scenario

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Allocator names accepted in a scenario.
const (
	AllocHeap      = "heap"
	AllocArena     = "arena"
	AllocSafeArena = "safe-arena"
)

// Config is the top level of a scenario file.
type Config struct {
	Scenarios []Scenario `toml:"scenario"`
}

// Scenario is one workload: Workers goroutines each placing Iterations
// composites of a header and a TailLen-element tail.
type Scenario struct {
	Name       string `toml:"name"`
	Allocator  string `toml:"allocator"`
	Workers    int    `toml:"workers"`
	Iterations int    `toml:"iterations"`
	TailLen    int    `toml:"tail_len"`
	// Nested puts a second header between the outer header and the tail.
	Nested bool `toml:"nested"`
	// ChunkSize and MaxCapacity configure arena allocators.
	ChunkSize   int `toml:"chunk_size"`
	MaxCapacity int `toml:"max_capacity"`
}

// Default returns the scenarios run when no file is given.
func Default() Config {
	return Config{Scenarios: []Scenario{
		{Name: "heap-flat", Allocator: AllocHeap, Workers: 4, Iterations: 1000, TailLen: 32},
		{Name: "heap-nested", Allocator: AllocHeap, Workers: 4, Iterations: 1000, TailLen: 32, Nested: true},
		{Name: "arena-flat", Allocator: AllocArena, Workers: 1, Iterations: 1000, TailLen: 32},
		{Name: "safe-arena-capped", Allocator: AllocSafeArena, Workers: 4, Iterations: 1000, TailLen: 32,
			Nested: true, ChunkSize: 1 << 14, MaxCapacity: 1 << 16},
	}}
}

// Load reads a scenario file.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes scenario TOML from a string.
func Parse(data string) (Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects unusable scenarios.
func (c *Config) Validate() error {
	if len(c.Scenarios) == 0 {
		return errors.New("no [[scenario]] entries")
	}
	for i := range c.Scenarios {
		if err := c.Scenarios[i].validate(); err != nil {
			return fmt.Errorf("scenario %d (%q): %w", i, c.Scenarios[i].Name, err)
		}
	}
	return nil
}

func (s *Scenario) validate() error {
	if s.Allocator == "" {
		s.Allocator = AllocHeap
	}
	if s.Name == "" {
		s.Name = s.Allocator
	}
	if s.Workers <= 0 {
		s.Workers = 1
	}
	if s.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", s.Iterations)
	}
	if s.TailLen < 0 {
		return fmt.Errorf("tail_len must not be negative, got %d", s.TailLen)
	}
	switch s.Allocator {
	case AllocHeap, AllocSafeArena:
	case AllocArena:
		if s.Workers > 1 {
			return fmt.Errorf("allocator %q is not goroutine-safe; use %q for %d workers",
				AllocArena, AllocSafeArena, s.Workers)
		}
	default:
		return fmt.Errorf("unknown allocator %q", s.Allocator)
	}
	return nil
}
