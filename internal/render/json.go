package render

import (
	"encoding/json"
	"io"

	"github.com/mark3labs/oascompare/internal/compare"
	"github.com/mark3labs/oascompare/internal/spec"
)

type jsonDocument struct {
	ID              string                         `json:"id"`
	Name            string                         `json:"name"`
	SpecVersion     string                         `json:"specVersion,omitempty"`
	Info            spec.Info                      `json:"info"`
	Servers         []spec.Server                  `json:"servers"`
	SecuritySchemes map[string]spec.SecurityScheme `json:"securitySchemes"`
	EndpointCount   int                            `json:"endpointCount"`
	SchemaCount     int                            `json:"schemaCount"`
}

type jsonOutput struct {
	Documents       []jsonDocument              `json:"documents"`
	Endpoints       []compare.EndpointRow       `json:"endpoints"`
	Schemas         []compare.SchemaRow         `json:"schemas"`
	SecuritySchemes []compare.SecuritySchemeRow `json:"securitySchemes"`
	Summary         compare.Summary             `json:"summary"`
}

// JSON writes the aligned result as indented JSON. Absent entries are null.
func JSON(out io.Writer, res compare.Result) error {
	o := jsonOutput{
		Documents:       make([]jsonDocument, 0, len(res.Documents)),
		Endpoints:       res.Endpoints,
		Schemas:         res.Schemas,
		SecuritySchemes: res.SecuritySchemes,
		Summary:         res.Summary,
	}
	for _, d := range res.Documents {
		o.Documents = append(o.Documents, jsonDocument{
			ID:              d.ID,
			Name:            d.Name,
			SpecVersion:     d.SpecVersion,
			Info:            d.Info,
			Servers:         d.Servers,
			SecuritySchemes: d.SecuritySchemes,
			EndpointCount:   len(d.Endpoints),
			SchemaCount:     len(d.Schemas),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}
