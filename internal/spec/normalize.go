package spec

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// NormalizeOption configures how a Document is built from a raw tree.
type NormalizeOption func(*normalizeConfig)

type normalizeConfig struct {
	newID func() string
	size  int64
}

// WithID sets the identifier generator used for the new document.
func WithID(newID func() string) NormalizeOption {
	return func(c *normalizeConfig) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// WithSize records the byte size of the source file on the document.
func WithSize(n int64) NormalizeOption {
	return func(c *normalizeConfig) { c.size = n }
}

// Normalize extracts a Document from a decoded JSON tree. Missing or oddly
// shaped optional fields never cause a failure; the only error is a top-level
// value that is not an object. raw is never modified.
func Normalize(raw any, filename string, opts ...NormalizeOption) (*Document, error) {
	cfg := &normalizeConfig{newID: DefaultSettings().NewID}
	for _, opt := range opts {
		opt(cfg)
	}

	root, ok := asObject(raw)
	if !ok {
		return nil, &SpecError{
			Code:     MalformedDocument,
			Message:  fmt.Sprintf("%s is not a valid OpenAPI document: top-level value is %s, expected an object", filename, describe(raw)),
			Location: filename,
		}
	}

	doc := &Document{
		ID:              cfg.newID(),
		Name:            filename,
		SpecVersion:     detectSpecVersion(root),
		Size:            cfg.size,
		Info:            extractInfo(root["info"]),
		Servers:         extractServers(root["servers"]),
		SecuritySchemes: map[string]SecurityScheme{},
		Endpoints:       []Endpoint{},
		Schemas:         []Schema{},
	}

	components, _ := asObject(root["components"])
	doc.SecuritySchemes = extractSecuritySchemes(components["securitySchemes"])
	doc.Endpoints = extractEndpoints(root["paths"])
	doc.Schemas = extractSchemas(components["schemas"])
	return doc, nil
}

// detectSpecVersion returns the openapi (3.x) or swagger (2.0) version string.
func detectSpecVersion(root map[string]any) string {
	if s, ok := root["openapi"].(string); ok {
		return strings.TrimSpace(s)
	}
	if s, ok := root["swagger"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func extractInfo(v any) Info {
	obj, ok := asObject(v)
	if !ok {
		return Info{}
	}
	info := Info{
		Title:          obj["title"],
		Version:        obj["version"],
		Description:    obj["description"],
		TermsOfService: obj["termsOfService"],
	}
	if c, ok := asObject(obj["contact"]); ok {
		info.Contact = &Contact{
			Name:  c["name"],
			Email: c["email"],
			URL:   c["url"],
			Extra: extraKeys(c, "name", "email", "url"),
		}
	}
	if l, ok := asObject(obj["license"]); ok {
		info.License = &License{
			Name:  l["name"],
			URL:   l["url"],
			Extra: extraKeys(l, "name", "url"),
		}
	}
	// A contact or license that is not an object is kept as is in Extra.
	known := []string{"title", "version", "description", "termsOfService"}
	if info.Contact != nil {
		known = append(known, "contact")
	}
	if info.License != nil {
		known = append(known, "license")
	}
	info.Extra = extraKeys(obj, known...)
	return info
}

// extraKeys returns the entries of obj not named in known, or nil when there are none.
func extraKeys(obj map[string]any, known ...string) map[string]any {
	var extra map[string]any
	for k, v := range obj {
		if slices.Contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func extractServers(v any) []Server {
	items, _ := asArray(v)
	servers := make([]Server, 0, len(items))
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			continue
		}
		servers = append(servers, Server{URL: obj["url"], Description: obj["description"]})
	}
	return servers
}

func extractSecuritySchemes(v any) map[string]SecurityScheme {
	obj, _ := asObject(v)
	schemes := make(map[string]SecurityScheme, len(obj))
	for name, val := range obj {
		s, ok := asObject(val)
		if !ok {
			continue
		}
		schemes[name] = SecurityScheme{
			Type:         s["type"],
			Description:  s["description"],
			Name:         s["name"],
			In:           s["in"],
			Scheme:       s["scheme"],
			BearerFormat: s["bearerFormat"],
		}
	}
	return schemes
}

// extractEndpoints walks paths in sorted order and method keys in sorted
// order. A (METHOD, path) pair seen twice keeps its first position and the
// last definition.
func extractEndpoints(v any) []Endpoint {
	paths, _ := asObject(v)
	endpoints := []Endpoint{}
	index := make(map[string]int)
	for _, p := range sortedKeys(paths) {
		item, ok := asObject(paths[p])
		if !ok {
			continue
		}
		for _, m := range sortedKeys(item) {
			op, ok := asObject(item[m])
			if !ok {
				// path-level parameters, summary strings and the like
				continue
			}
			params, _ := asArray(op["parameters"])
			responses, _ := asObject(op["responses"])
			ep := Endpoint{
				Path:        p,
				Method:      strings.ToUpper(m),
				Summary:     asString(op["summary"]),
				OperationID: asString(op["operationId"]),
				Parameters:  params,
				Responses:   responses,
			}
			if ep.Parameters == nil {
				ep.Parameters = []any{}
			}
			if ep.Responses == nil {
				ep.Responses = map[string]any{}
			}
			if i, seen := index[ep.Key()]; seen {
				endpoints[i] = ep
				continue
			}
			index[ep.Key()] = len(endpoints)
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

func extractSchemas(v any) []Schema {
	defs, _ := asObject(v)
	schemas := make([]Schema, 0, len(defs))
	for _, name := range sortedKeys(defs) {
		obj, ok := asObject(defs[name])
		if !ok {
			continue
		}
		props, _ := asObject(obj["properties"])
		if props == nil {
			props = map[string]any{}
		}
		schemas = append(schemas, Schema{
			Name:       name,
			Type:       schemaType(obj["type"]),
			Properties: props,
			Required:   stringItems(obj["required"]),
		})
	}
	return schemas
}

// schemaType defaults to "object". OpenAPI 3.1 type arrays are joined.
func schemaType(v any) string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case []any:
		if parts := stringItems(t); len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	case nil:
	default:
		return fmt.Sprint(t)
	}
	return "object"
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func stringItems(v any) []string {
	items, _ := asArray(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case map[string]any:
		return "an object"
	default:
		return "a number"
	}
}
