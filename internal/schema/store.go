package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"sqlqa/internal/util/jsonutil"
)

// Mode selects how SearchTables matches candidate table names.
type Mode string

const (
	// ModeExact keeps only tables whose name contains one of the queries
	// (case-insensitive substring match).
	ModeExact Mode = "exact"
	// ModeConnected keeps exact matches plus every table reachable through
	// a foreign-key edge from a match.
	ModeConnected Mode = "connected"
	// ModeSame keeps every table regardless of the queries. This mirrors the
	// behavior observed in the source system; prefer ModeConnected unless
	// the broad-inclusion behavior is specifically wanted.
	ModeSame Mode = "same"
)

// ParseMode validates a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact:
		return ModeExact, nil
	case ModeConnected:
		return ModeConnected, nil
	case ModeSame:
		return ModeSame, nil
	case "":
		return ModeConnected, nil
	}
	return "", fmt.Errorf("schema: unknown search mode %q", s)
}

// Store holds full schemas and answers filtered sub-schema lookups.
// Lookups for a repeated (queries, mode) pair are answered from an LRU cache;
// linking tends to resolve the same table set many times per conversation.
type Store struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	cache   *lru.Cache[string, map[string]*Schema]
}

func NewStore() *Store {
	cache, _ := lru.New[string, map[string]*Schema](256)
	return &Store{
		schemas: make(map[string]*Schema),
		cache:   cache,
	}
}

// Add registers a schema under its own name, replacing any previous one.
func (st *Store) Add(s *Schema) {
	if s == nil {
		return
	}
	st.mu.Lock()
	st.schemas[s.Name] = s
	st.cache.Purge()
	st.mu.Unlock()
}

// Get returns a registered schema by name.
func (st *Store) Get(name string) (*Schema, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.schemas[name]
	return s, ok
}

// All returns every registered schema keyed by name.
func (st *Store) All() map[string]*Schema {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make(map[string]*Schema, len(st.schemas))
	for k, v := range st.schemas {
		out[k] = v
	}
	return out
}

// SearchTables resolves candidate table names into filtered sub-schemas.
// The returned schemas only reference tables that survived filtering; when
// includeForeignKeys is set, only FK edges with both endpoints selected are
// kept, so the result upholds the "every FK endpoint exists" invariant.
func (st *Store) SearchTables(queries []string, mode Mode, includeForeignKeys bool) map[string]*Schema {
	key := cacheKey(queries, mode, includeForeignKeys)
	if hit, ok := st.cache.Get(key); ok {
		return hit
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	matching := make(map[string]map[string]bool)
	for name, s := range st.schemas {
		sel := make(map[string]bool)
		for _, tbl := range s.Tables {
			if mode == ModeSame {
				sel[tbl.Name] = true
				continue
			}
			for _, q := range queries {
				if q != "" && strings.Contains(strings.ToLower(tbl.Name), strings.ToLower(q)) {
					sel[tbl.Name] = true
					break
				}
			}
		}
		matching[name] = sel
	}

	if mode == ModeConnected {
		for name, s := range st.schemas {
			sel := matching[name]
			for _, fk := range s.ForeignKeys {
				src, dst, ok := splitForeignKey(fk)
				if !ok {
					continue
				}
				if sel[src] || sel[dst] {
					sel[src] = true
					sel[dst] = true
				}
			}
		}
	}

	out := st.filtered(matching, includeForeignKeys)
	st.cache.Add(key, out)
	return out
}

// filtered builds new Schema values restricted to the selected tables.
func (st *Store) filtered(selected map[string]map[string]bool, includeForeignKeys bool) map[string]*Schema {
	out := make(map[string]*Schema)
	for name, s := range st.schemas {
		sel := selected[name]
		if len(sel) == 0 {
			continue
		}
		f := &Schema{Name: s.Name, Description: s.Description}
		for _, tbl := range s.Tables {
			if sel[tbl.Name] {
				f.Tables = append(f.Tables, tbl)
			}
		}
		if includeForeignKeys {
			for _, fk := range s.ForeignKeys {
				src, dst, ok := splitForeignKey(fk)
				if ok && sel[src] && sel[dst] {
					f.ForeignKeys = append(f.ForeignKeys, fk)
				}
			}
		}
		out[name] = f
	}
	return out
}

func cacheKey(queries []string, mode Mode, fks bool) string {
	qs := make([]string, len(queries))
	for i, q := range queries {
		qs[i] = strings.ToLower(strings.TrimSpace(q))
	}
	sort.Strings(qs)
	return string(mode) + "|" + fmt.Sprint(fks) + "|" + strings.Join(qs, ",")
}

// Render serializes filtered schemas as indented JSON for prompt embedding.
func Render(schemas map[string]*Schema) string {
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	ordered := make([]*Schema, 0, len(names))
	for _, n := range names {
		ordered = append(ordered, schemas[n])
	}
	b, err := jsonutil.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

// TableNames lists every table name across the filtered schemas, in
// schema-name order. Used for tracing.
func TableNames(schemas map[string]*Schema) []string {
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	var out []string
	for _, n := range names {
		for _, t := range schemas[n].Tables {
			out = append(out, t.Name)
		}
	}
	return out
}
