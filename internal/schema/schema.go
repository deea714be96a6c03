package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Column describes one column of a database table, including the free-text
// description and example value the generation prompts rely on.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// Table is a named set of columns.
type Table struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns"`
}

// Schema is one database schema. Foreign keys are kept in their textual
// "table.col -> table.col" form; they are parsed on demand.
type Schema struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tables      []Table  `json:"tables,omitempty"`
	ForeignKeys []string `json:"foreign_keys,omitempty"`
}

// Load reads a schema definition from a JSON file.
func Load(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}
	return &s, nil
}

// splitForeignKey parses "a.x -> b.y" into its source and target table names.
// Malformed entries return ok=false and are skipped by callers.
func splitForeignKey(fk string) (source, target string, ok bool) {
	parts := strings.SplitN(fk, " -> ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	src := strings.SplitN(strings.TrimSpace(parts[0]), ".", 2)
	dst := strings.SplitN(strings.TrimSpace(parts[1]), ".", 2)
	if src[0] == "" || dst[0] == "" {
		return "", "", false
	}
	return src[0], dst[0], true
}
