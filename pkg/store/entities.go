package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Sternrassler/geo-enrich/pkg/geo"
)

// LoadEntities reads a JSON array of entity names from path.
func LoadEntities(path string) ([]geo.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}

	var entities []geo.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decode entities %s: %w", path, err)
	}
	return entities, nil
}

// SaveEntities writes entities to path as an indented JSON array.
func SaveEntities(path string, entities []geo.Entity) error {
	if entities == nil {
		entities = []geo.Entity{}
	}
	data, err := encodeIndented(entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write entities: %w", err)
	}
	return nil
}

// EncodeResults renders results the way JSONFile writes them.
func EncodeResults(results geo.ResultMap) ([]byte, error) {
	if results == nil {
		results = geo.ResultMap{}
	}
	return encodeIndented(results)
}

// encodeIndented encodes v with four-space indentation, leaving HTML
// characters and non-ASCII text unescaped.
func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
