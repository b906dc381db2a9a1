// Package compare aligns normalized documents by comparison key so they can be
// shown side by side. All functions are pure: the same input list always
// yields the same rows in the same order.
package compare

import (
	"sort"

	"github.com/mark3labs/oascompare/internal/spec"
)

// EndpointRow is one comparison key of the endpoint section. PerDocument is
// positionally aligned with the input documents; nil marks an absent entry.
type EndpointRow struct {
	Key         string           `json:"key"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	PerDocument []*spec.Endpoint `json:"perDocument"`
	AllPresent  bool             `json:"allPresent"`
}

type SchemaRow struct {
	Key         string         `json:"key"`
	Name        string         `json:"name"`
	PerDocument []*spec.Schema `json:"perDocument"`
	AllPresent  bool           `json:"allPresent"`
}

type SecuritySchemeRow struct {
	Key         string                 `json:"key"`
	Name        string                 `json:"name"`
	PerDocument []*spec.SecurityScheme `json:"perDocument"`
	AllPresent  bool                   `json:"allPresent"`
}

// AlignEndpoints returns one row per "<METHOD> <path>" key found in any
// document, sorted by key in byte order.
func AlignEndpoints(docs []*spec.Document) []EndpointRow {
	lookups := make([]map[string]*spec.Endpoint, len(docs))
	keys := make(map[string]struct{})
	// first occurrence per key carries the decoded method and path
	first := make(map[string]*spec.Endpoint)
	for i, doc := range docs {
		lookups[i] = make(map[string]*spec.Endpoint)
		if doc == nil {
			continue
		}
		for j := range doc.Endpoints {
			ep := &doc.Endpoints[j]
			key := ep.Key()
			lookups[i][key] = ep
			keys[key] = struct{}{}
			if _, ok := first[key]; !ok {
				first[key] = ep
			}
		}
	}

	rows := make([]EndpointRow, 0, len(keys))
	for _, key := range sortedKeys(keys) {
		row := EndpointRow{
			Key:         key,
			Method:      first[key].Method,
			Path:        first[key].Path,
			PerDocument: make([]*spec.Endpoint, len(docs)),
			AllPresent:  true,
		}
		for i := range docs {
			row.PerDocument[i] = lookups[i][key]
			if row.PerDocument[i] == nil {
				row.AllPresent = false
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// AlignSchemas returns one row per schema name found in any document.
func AlignSchemas(docs []*spec.Document) []SchemaRow {
	lookups := make([]map[string]*spec.Schema, len(docs))
	keys := make(map[string]struct{})
	for i, doc := range docs {
		lookups[i] = make(map[string]*spec.Schema)
		if doc == nil {
			continue
		}
		for j := range doc.Schemas {
			s := &doc.Schemas[j]
			lookups[i][s.Name] = s
			keys[s.Name] = struct{}{}
		}
	}

	rows := make([]SchemaRow, 0, len(keys))
	for _, key := range sortedKeys(keys) {
		row := SchemaRow{Key: key, Name: key, PerDocument: make([]*spec.Schema, len(docs)), AllPresent: true}
		for i := range docs {
			row.PerDocument[i] = lookups[i][key]
			if row.PerDocument[i] == nil {
				row.AllPresent = false
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// AlignSecuritySchemes returns one row per security scheme name found in any document.
func AlignSecuritySchemes(docs []*spec.Document) []SecuritySchemeRow {
	keys := make(map[string]struct{})
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for name := range doc.SecuritySchemes {
			keys[name] = struct{}{}
		}
	}

	rows := make([]SecuritySchemeRow, 0, len(keys))
	for _, key := range sortedKeys(keys) {
		row := SecuritySchemeRow{Key: key, Name: key, PerDocument: make([]*spec.SecurityScheme, len(docs)), AllPresent: true}
		for i, doc := range docs {
			if doc != nil {
				if s, ok := doc.SecuritySchemes[key]; ok {
					row.PerDocument[i] = &s
				}
			}
			if row.PerDocument[i] == nil {
				row.AllPresent = false
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
