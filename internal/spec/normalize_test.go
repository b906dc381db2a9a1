package spec

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Sample API",
    "version": "1.0.0",
    "description": "Demo",
    "termsOfService": "https://example.com/tos",
    "contact": {"name": "API Team", "email": "api@example.com", "url": "https://example.com"},
    "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
    "x-logo": "logo.png"
  },
  "servers": [
    {"url": "https://api.example.com", "description": "primary"},
    "not-a-server",
    {"url": "https://staging.example.com"}
  ],
  "paths": {
    "/pets": {
      "parameters": [{"in": "query", "name": "limit"}],
      "summary": "Pets",
      "get": {
        "summary": "List pets",
        "operationId": "listPets",
        "parameters": [{"in": "query", "name": "limit", "required": true}],
        "responses": {"200": {"description": "ok"}}
      },
      "post": {
        "summary": "Create pet",
        "responses": {"201": {"description": "created"}}
      }
    },
    "/pets/{id}": {
      "delete": {"responses": {"204": {"description": "gone"}}}
    }
  },
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
      "apiKey": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
      "broken": "nope"
    },
    "schemas": {
      "Pet": {
        "type": "object",
        "properties": {"id": {"type": "integer"}, "name": {"type": "string"}},
        "required": ["id", "name"]
      },
      "Error": {"properties": {"message": {"type": "string"}}},
      "Nullable": {"type": ["string", "null"]},
      "Junk": 42
    }
  }
}`

func decode(t *testing.T, s string) any {
	t.Helper()
	raw, err := decodeJSON([]byte(s))
	require.NoError(t, err)
	return raw
}

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return "doc-" + strconv.Itoa(n)
	}
}

func TestNormalize_FullDocument(t *testing.T) {
	t.Parallel()
	doc, err := Normalize(decode(t, sampleSpec), "sample.json", WithID(counterIDs()))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "sample.json", doc.Name)
	assert.Equal(t, "3.0.3", doc.SpecVersion)

	// Info
	assert.Equal(t, "Sample API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.Equal(t, "https://example.com/tos", doc.Info.TermsOfService)
	require.NotNil(t, doc.Info.Contact)
	assert.Equal(t, "api@example.com", doc.Info.Contact.Email)
	require.NotNil(t, doc.Info.License)
	assert.Equal(t, "MIT", doc.Info.License.Name)
	assert.Equal(t, map[string]any{"x-logo": "logo.png"}, doc.Info.Extra)

	// Servers keep order, non-objects skipped
	require.Len(t, doc.Servers, 2)
	assert.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	assert.Equal(t, "https://staging.example.com", doc.Servers[1].URL)
	assert.Nil(t, doc.Servers[1].Description)

	// Security schemes
	require.Len(t, doc.SecuritySchemes, 2)
	assert.Equal(t, "bearer", doc.SecuritySchemes["bearerAuth"].Scheme)
	assert.Equal(t, "header", doc.SecuritySchemes["apiKey"].In)

	// Endpoints: path-level parameters/summary are not endpoints
	keys := make([]string, 0, len(doc.Endpoints))
	for _, ep := range doc.Endpoints {
		keys = append(keys, ep.Key())
	}
	assert.Equal(t, []string{"GET /pets", "POST /pets", "DELETE /pets/{id}"}, keys)
	get := doc.Endpoints[0]
	assert.Equal(t, "List pets", get.Summary)
	assert.Equal(t, "listPets", get.OperationID)
	assert.Len(t, get.Parameters, 1)
	assert.Contains(t, get.Responses, "200")
	post := doc.Endpoints[1]
	assert.Equal(t, "", post.OperationID)
	assert.NotNil(t, post.Parameters)
	assert.Empty(t, post.Parameters)

	// Schemas: sorted by name, non-objects skipped, type defaulted
	require.Len(t, doc.Schemas, 3)
	assert.Equal(t, "Error", doc.Schemas[0].Name)
	assert.Equal(t, "object", doc.Schemas[0].Type)
	assert.Empty(t, doc.Schemas[0].Required)
	assert.NotNil(t, doc.Schemas[0].Required)
	assert.Equal(t, "Nullable", doc.Schemas[1].Name)
	assert.Equal(t, "string, null", doc.Schemas[1].Type)
	assert.Equal(t, "Pet", doc.Schemas[2].Name)
	assert.Equal(t, []string{"id", "name"}, doc.Schemas[2].Required)
	assert.Len(t, doc.Schemas[2].Properties, 2)
}

func TestNormalize_MissingOptionalFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty object", in: `{}`},
		{name: "null sections", in: `{"info": null, "servers": null, "paths": null, "components": null}`},
		{name: "wrong shapes", in: `{"info": "x", "servers": {"url": "a"}, "paths": [], "components": {"schemas": [], "securitySchemes": 7}}`},
		{name: "components without schemas", in: `{"components": {"responses": {}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Normalize(decode(t, tt.in), "empty.json")
			require.NoError(t, err)
			assert.NotEmpty(t, doc.ID)
			assert.Equal(t, Info{}, doc.Info)
			assert.NotNil(t, doc.Servers)
			assert.Empty(t, doc.Servers)
			assert.NotNil(t, doc.SecuritySchemes)
			assert.Empty(t, doc.SecuritySchemes)
			assert.NotNil(t, doc.Endpoints)
			assert.Empty(t, doc.Endpoints)
			assert.NotNil(t, doc.Schemas)
			assert.Empty(t, doc.Schemas)
		})
	}
}

func TestNormalize_NonObjectTopLevel(t *testing.T) {
	t.Parallel()
	for _, in := range []string{`[]`, `[{"openapi": "3.0.0"}]`, `42`, `"str"`, `true`, `null`} {
		_, err := Normalize(decode(t, in), "list.json")
		require.Error(t, err, in)
		var se *SpecError
		require.True(t, errors.As(err, &se), in)
		assert.Equal(t, MalformedDocument, se.Code)
		assert.Equal(t, "list.json", se.Location)
		assert.Contains(t, se.Error(), "list.json")
		assert.ErrorIs(t, err, ErrMalformedDocument)
	}
}

func TestNormalize_NonStringValuesPassThrough(t *testing.T) {
	t.Parallel()
	doc, err := Normalize(decode(t, `{"info": {"title": 12, "version": ["1"], "contact": "me"}}`), "odd.json")
	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), doc.Info.Title)
	assert.Equal(t, []any{"1"}, doc.Info.Version)
	assert.Nil(t, doc.Info.Contact)
	assert.Equal(t, "me", doc.Info.Extra["contact"])
}

func TestNormalize_DuplicateMethodLastWins(t *testing.T) {
	t.Parallel()
	in := `{"paths": {"/a": {"GET": {"summary": "upper"}, "get": {"summary": "lower"}}}}`
	doc, err := Normalize(decode(t, in), "dup.json")
	require.NoError(t, err)
	require.Len(t, doc.Endpoints, 1)
	assert.Equal(t, "GET", doc.Endpoints[0].Method)
	// "GET" sorts before "get", so the lower-case definition is seen last.
	assert.Equal(t, "lower", doc.Endpoints[0].Summary)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	raw := decode(t, sampleSpec)
	before := decode(t, sampleSpec)
	_, err := Normalize(raw, "sample.json")
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(before, raw))
}

func TestNormalize_UniqueIDs(t *testing.T) {
	t.Parallel()
	raw := decode(t, `{}`)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		doc, err := Normalize(raw, "a.json")
		require.NoError(t, err)
		_, dup := seen[doc.ID]
		require.False(t, dup, "duplicate id %s", doc.ID)
		seen[doc.ID] = struct{}{}
	}
}

func TestInfo_MarshalJSONKeepsExtra(t *testing.T) {
	t.Parallel()
	doc, err := Normalize(decode(t, sampleSpec), "sample.json")
	require.NoError(t, err)
	b, err := json.Marshal(doc.Info)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Sample API", got["title"])
	assert.Equal(t, "logo.png", got["x-logo"])
	assert.Equal(t, map[string]any{"name": "MIT", "url": "https://opensource.org/licenses/MIT"}, got["license"])
}

func TestNormalize_InfoSubfieldsPassThrough(t *testing.T) {
	t.Parallel()
	doc, err := Normalize(decode(t, `{"info": {
  "title": "T",
  "contact": "team@example.com",
  "license": {"name": "MIT", "identifier": "MIT"}
}}`), "odd.json")
	require.NoError(t, err)

	assert.Nil(t, doc.Info.Contact)
	assert.Equal(t, "team@example.com", doc.Info.Extra["contact"])
	require.NotNil(t, doc.Info.License)
	assert.Equal(t, map[string]any{"identifier": "MIT"}, doc.Info.License.Extra)

	b, err := json.Marshal(doc.Info)
	require.NoError(t, err)
	assert.JSONEq(t, `{
  "title": "T",
  "contact": "team@example.com",
  "license": {"name": "MIT", "identifier": "MIT"}
}`, string(b))
}

func TestNormalize_ContactKeepsUnknownKeys(t *testing.T) {
	t.Parallel()
	doc, err := Normalize(decode(t, `{"info": {"contact": {"email": "a@b.c", "x-slack": "#api"}, "license": 7}}`), "c.json")
	require.NoError(t, err)

	require.NotNil(t, doc.Info.Contact)
	assert.Equal(t, map[string]any{"x-slack": "#api"}, doc.Info.Contact.Extra)
	assert.Nil(t, doc.Info.License)
	assert.Equal(t, json.Number("7"), doc.Info.Extra["license"])

	b, err := json.Marshal(doc.Info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contact": {"email": "a@b.c", "x-slack": "#api"}, "license": 7}`, string(b))
}
