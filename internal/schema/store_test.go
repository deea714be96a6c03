package schema

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name: "chinook",
		Tables: []Table{
			{Name: "artists", Columns: []Column{{Name: "id", Type: "int"}}},
			{Name: "albums", Columns: []Column{{Name: "artist_id", Type: "int"}}},
			{Name: "invoices", Columns: []Column{{Name: "total", Type: "numeric"}}},
		},
		ForeignKeys: []string{
			"albums.artist_id -> artists.id",
			"invoices.customer_id -> customers.id",
		},
	}
}

func tableNames(t *testing.T, got map[string]*Schema) []string {
	t.Helper()
	return TableNames(got)
}

func TestSearchTables_Exact(t *testing.T) {
	st := NewStore()
	st.Add(testSchema())

	got := st.SearchTables([]string{"artist"}, ModeExact, true)
	if want := []string{"artists"}; !reflect.DeepEqual(tableNames(t, got), want) {
		t.Fatalf("expected %v, got %v", want, tableNames(t, got))
	}
	// Exact keeps no FK whose other endpoint was filtered out.
	if fks := got["chinook"].ForeignKeys; len(fks) != 0 {
		t.Fatalf("dangling foreign keys survived filtering: %v", fks)
	}
}

func TestSearchTables_ConnectedExpandsForeignKeys(t *testing.T) {
	st := NewStore()
	st.Add(testSchema())

	got := st.SearchTables([]string{"albums"}, ModeConnected, true)
	if want := []string{"artists", "albums"}; !reflect.DeepEqual(tableNames(t, got), want) {
		t.Fatalf("expected %v, got %v", want, tableNames(t, got))
	}
	if want := []string{"albums.artist_id -> artists.id"}; !reflect.DeepEqual(got["chinook"].ForeignKeys, want) {
		t.Fatalf("expected surviving FK %v, got %v", want, got["chinook"].ForeignKeys)
	}
}

func TestSearchTables_SameReturnsEverything(t *testing.T) {
	st := NewStore()
	st.Add(testSchema())

	got := st.SearchTables([]string{"nonexistent"}, ModeSame, false)
	if want := []string{"artists", "albums", "invoices"}; !reflect.DeepEqual(tableNames(t, got), want) {
		t.Fatalf("expected all tables, got %v", tableNames(t, got))
	}
	if got["chinook"].ForeignKeys != nil {
		t.Fatal("foreign keys must be dropped when not requested")
	}
}

func TestSearchTables_MalformedForeignKeySkipped(t *testing.T) {
	st := NewStore()
	st.Add(&Schema{
		Name:        "broken",
		Tables:      []Table{{Name: "a"}, {Name: "b"}},
		ForeignKeys: []string{"not a foreign key", "a.x -> b.y"},
	})

	got := st.SearchTables([]string{"a"}, ModeConnected, true)
	if want := []string{"a.x -> b.y"}; !reflect.DeepEqual(got["broken"].ForeignKeys, want) {
		t.Fatalf("expected only the well-formed FK, got %v", got["broken"].ForeignKeys)
	}
}

func TestSearchTables_CacheInvalidatedOnAdd(t *testing.T) {
	st := NewStore()
	st.Add(testSchema())

	first := st.SearchTables([]string{"artist"}, ModeExact, true)
	again := st.SearchTables([]string{"Artist"}, ModeExact, true)
	if !reflect.DeepEqual(first, again) {
		t.Fatal("case-insensitive repeat lookup should hit the cache")
	}

	s := testSchema()
	s.Tables = append(s.Tables, Table{Name: "artist_awards"})
	st.Add(s)
	refreshed := st.SearchTables([]string{"artist"}, ModeExact, true)
	if want := []string{"artists", "artist_awards"}; !reflect.DeepEqual(tableNames(t, refreshed), want) {
		t.Fatalf("stale cache after Add: got %v", tableNames(t, refreshed))
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":            ModeConnected,
		"exact":       ModeExact,
		" Connected ": ModeConnected,
		"SAME":        ModeSame,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("fuzzy"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	data := `{"name":"shop","tables":[{"name":"orders","columns":[{"name":"id","type":"int","description":"khóa chính"}]}],"foreign_keys":[]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "shop" || len(s.Tables) != 1 || s.Tables[0].Columns[0].Description != "khóa chính" {
		t.Fatalf("unexpected schema: %+v", s)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
