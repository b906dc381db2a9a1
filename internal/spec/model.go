package spec

import "encoding/json"

// Normalized document model shared by the aligner, the renderer and the exporter.

// Document is the stable shape extracted from one uploaded OpenAPI file.
// It is never mutated after Normalize returns it.
type Document struct {
	ID              string
	Name            string
	SpecVersion     string
	Size            int64
	Info            Info
	Servers         []Server
	SecuritySchemes map[string]SecurityScheme
	Endpoints       []Endpoint
	Schemas         []Schema
}

// Info mirrors the OpenAPI info object. Field values are passed through as
// decoded, so a non-string value in the source is kept for display.
type Info struct {
	Title          any            `json:"title,omitempty"`
	Version        any            `json:"version,omitempty"`
	Description    any            `json:"description,omitempty"`
	TermsOfService any            `json:"termsOfService,omitempty"`
	Contact        *Contact       `json:"contact,omitempty"`
	License        *License       `json:"license,omitempty"`
	Extra          map[string]any `json:"-"`
}

type Contact struct {
	Name  any            `json:"name,omitempty"`
	Email any            `json:"email,omitempty"`
	URL   any            `json:"url,omitempty"`
	Extra map[string]any `json:"-"`
}

// License carries name and url; other keys such as the 3.1 identifier stay in Extra.
type License struct {
	Name  any            `json:"name,omitempty"`
	URL   any            `json:"url,omitempty"`
	Extra map[string]any `json:"-"`
}

func (c Contact) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(c.Extra, "name", c.Name, "email", c.Email, "url", c.URL)
}

func (l License) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(l.Extra, "name", l.Name, "url", l.URL)
}

// marshalWithExtra encodes extra merged with the non-nil known key/value pairs.
func marshalWithExtra(extra map[string]any, kv ...any) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(kv)/2)
	for k, v := range extra {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != nil {
			out[kv[i].(string)] = kv[i+1]
		}
	}
	return json.Marshal(out)
}

// Server is one entry of the servers list. The first server is the primary one.
type Server struct {
	URL         any `json:"url,omitempty"`
	Description any `json:"description,omitempty"`
}

type SecurityScheme struct {
	Type         any `json:"type,omitempty"`
	Description  any `json:"description,omitempty"`
	Name         any `json:"name,omitempty"`
	In           any `json:"in,omitempty"`
	Scheme       any `json:"scheme,omitempty"`
	BearerFormat any `json:"bearerFormat,omitempty"`
}

// Endpoint is one (method, path) operation. Method is upper-cased.
type Endpoint struct {
	Path        string         `json:"path"`
	Method      string         `json:"method"`
	Summary     string         `json:"summary"`
	OperationID string         `json:"operationId"`
	Parameters  []any          `json:"parameters"`
	Responses   map[string]any `json:"responses"`
}

// Key returns the canonical comparison key "<METHOD> <path>".
func (e Endpoint) Key() string { return EndpointKey(e.Method, e.Path) }

// EndpointKey builds the canonical comparison key for a method and path.
func EndpointKey(method, path string) string { return method + " " + path }

type Schema struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// MarshalJSON emits the known info fields together with any extra keys found
// in the source info object.
func (i Info) MarshalJSON() ([]byte, error) {
	var contact, license any
	if i.Contact != nil {
		contact = i.Contact
	}
	if i.License != nil {
		license = i.License
	}
	return marshalWithExtra(i.Extra,
		"title", i.Title,
		"version", i.Version,
		"description", i.Description,
		"termsOfService", i.TermsOfService,
		"contact", contact,
		"license", license,
	)
}
