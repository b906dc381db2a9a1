package compare

import "github.com/mark3labs/oascompare/internal/spec"

// SectionStats counts rows and rows present in every document.
type SectionStats struct {
	Rows       int `json:"rows"`
	Consistent int `json:"consistent"`
}

// Differs reports whether at least one row is missing from some document.
func (s SectionStats) Differs() bool { return s.Consistent < s.Rows }

// Summary aggregates the aligned sections of one snapshot.
type Summary struct {
	Documents       int          `json:"documents"`
	Endpoints       SectionStats `json:"endpoints"`
	Schemas         SectionStats `json:"schemas"`
	SecuritySchemes SectionStats `json:"securitySchemes"`
}

// Differs reports whether any section has an inconsistent row.
func (s Summary) Differs() bool {
	return s.Endpoints.Differs() || s.Schemas.Differs() || s.SecuritySchemes.Differs()
}

// Result bundles every aligned section for one snapshot of documents.
type Result struct {
	Documents       []*spec.Document    `json:"-"`
	Endpoints       []EndpointRow       `json:"endpoints"`
	Schemas         []SchemaRow         `json:"schemas"`
	SecuritySchemes []SecuritySchemeRow `json:"securitySchemes"`
	Summary         Summary             `json:"summary"`
}

// Align runs every aligner over docs.
func Align(docs []*spec.Document) Result {
	res := Result{
		Documents:       docs,
		Endpoints:       AlignEndpoints(docs),
		Schemas:         AlignSchemas(docs),
		SecuritySchemes: AlignSecuritySchemes(docs),
	}
	res.Summary = Summary{Documents: len(docs)}
	for _, r := range res.Endpoints {
		res.Summary.Endpoints.Rows++
		if r.AllPresent {
			res.Summary.Endpoints.Consistent++
		}
	}
	for _, r := range res.Schemas {
		res.Summary.Schemas.Rows++
		if r.AllPresent {
			res.Summary.Schemas.Consistent++
		}
	}
	for _, r := range res.SecuritySchemes {
		res.Summary.SecuritySchemes.Rows++
		if r.AllPresent {
			res.Summary.SecuritySchemes.Consistent++
		}
	}
	return res
}
