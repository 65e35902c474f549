package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[[scenario]]
name = "flat"
allocator = "arena"
iterations = 10
tail_len = 4
chunk_size = 4096

[[scenario]]
allocator = "safe-arena"
workers = 3
iterations = 5
tail_len = 0
nested = true
max_capacity = 8192
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)
	require.Len(t, cfg.Scenarios, 2)

	first := cfg.Scenarios[0]
	assert.Equal(t, "flat", first.Name)
	assert.Equal(t, AllocArena, first.Allocator)
	assert.Equal(t, 1, first.Workers, "workers defaults to 1")
	assert.Equal(t, 10, first.Iterations)
	assert.Equal(t, 4096, first.ChunkSize)
	assert.False(t, first.Nested)

	second := cfg.Scenarios[1]
	assert.Equal(t, AllocSafeArena, second.Name, "name defaults to the allocator")
	assert.Equal(t, 3, second.Workers)
	assert.True(t, second.Nested)
	assert.Equal(t, 8192, second.MaxCapacity)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", ``, "no [[scenario]]"},
		{"syntax", `[[scenario]`, "failed to parse TOML"},
		{"iterations", "[[scenario]]\niterations = 0", "iterations must be positive"},
		{"tail", "[[scenario]]\niterations = 1\ntail_len = -1", "tail_len"},
		{"allocator", "[[scenario]]\niterations = 1\nallocator = \"pool\"", `unknown allocator "pool"`},
		{"arena workers", "[[scenario]]\niterations = 1\nallocator = \"arena\"\nworkers = 2", "not goroutine-safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Scenarios, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.toml")
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Scenarios)
}
