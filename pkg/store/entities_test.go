package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Paris, France", "Besançon, France"]`), 0o644))

	entities, err := LoadEntities(path)
	require.NoError(t, err)
	assert.Equal(t, []geo.Entity{"Paris, France", "Besançon, France"}, entities)
}

func TestLoadEntities_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		create  bool
	}{
		{name: "missing file", create: false},
		{name: "not an array", content: `{"Paris": 1}`, create: true},
		{name: "not json", content: `Paris, France`, create: true},
		{name: "mixed types", content: `["Paris", 3]`, create: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "input"+string(rune('a'+i))+".json")
			if tt.create {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}
			_, err := LoadEntities(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveEntities_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")

	require.NoError(t, SaveEntities(path, DefaultCities))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"Le Mont-Saint-Michel, France\",")
	assert.Contains(t, string(data), "Château du Haut-Koenigsbourg")

	loaded, err := LoadEntities(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCities, loaded)
}

func TestSaveEntities_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")

	require.NoError(t, SaveEntities(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDefaultCities(t *testing.T) {
	assert.Len(t, DefaultCities, 35)
	assert.Equal(t, len(DefaultCities), geo.Distinct(DefaultCities))
}
