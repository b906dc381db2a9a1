// Package render draws the side-by-side comparison grid in a terminal and
// emits the aligned rows as JSON for scripting.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mark3labs/oascompare/internal/compare"
	"github.com/mark3labs/oascompare/internal/spec"
)

const (
	markPresent = "✓"
	markMissing = "✗"
	empty       = "-"
	maxCell     = 60
)

// Grid renders a comparison result as terminal tables.
type Grid struct {
	Out      io.Writer
	Expanded Sections
	// Width bounds the table width; zero lets columns size to content.
	Width int

	styles styles
}

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	faint   lipgloss.Style
	border  lipgloss.Style
	hint    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		section: r.NewStyle().Bold(true).Padding(0, 1),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		faint:   r.NewStyle().Faint(true).Padding(0, 1),
		border:  r.NewStyle().Foreground(lipgloss.Color("8")),
		hint:    r.NewStyle().Italic(true),
	}
}

// NewGrid returns a Grid writing to out with the default expand state.
func NewGrid(out io.Writer) *Grid {
	return &Grid{Out: out, Expanded: DefaultSections()}
}

// Render writes the uploaded file list and, with two or more documents, the
// comparison grid.
func (g *Grid) Render(res compare.Result) error {
	g.styles = newStyles(lipgloss.NewRenderer(g.Out))
	if g.Expanded == nil {
		g.Expanded = DefaultSections()
	}
	docs := res.Documents

	var b strings.Builder
	if len(docs) == 0 {
		b.WriteString(g.styles.hint.Render("Upload your first OpenAPI file to get started") + "\n")
		_, err := io.WriteString(g.Out, b.String())
		return err
	}

	b.WriteString(g.styles.title.Render(fmt.Sprintf("Uploaded Files (%d)", len(docs))) + "\n")
	b.WriteString(g.filesTable(docs) + "\n")

	if len(docs) == 1 {
		b.WriteString(g.styles.hint.Render("Upload another OpenAPI file to start comparing") + "\n")
		_, err := io.WriteString(g.Out, b.String())
		return err
	}

	b.WriteString("\n" + g.styles.title.Render("Side-by-Side Comparison") + "\n")
	b.WriteString(g.comparisonTable(res) + "\n")
	b.WriteString(summaryLine(res.Summary) + "\n")
	_, err := io.WriteString(g.Out, b.String())
	return err
}

func (g *Grid) filesTable(docs []*spec.Document) string {
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{
			d.Name,
			orDefault(d.Info.Title, "No title"),
			orDefault(d.SpecVersion, empty),
			strconv.Itoa(len(d.Endpoints)) + " endpoints",
			strconv.Itoa(len(d.Schemas)) + " schemas",
		})
	}
	return g.newTable([]string{"File", "Title", "OpenAPI", "Endpoints", "Schemas"}, rows, nil).String()
}

// row kinds drive styling in the comparison table.
type rowKind int

const (
	kindSection rowKind = iota
	kindField
)

type gridRow struct {
	kind  rowKind
	cells []string
}

func (g *Grid) comparisonTable(res compare.Result) string {
	docs := res.Documents
	headers := make([]string, 0, len(docs)+1)
	headers = append(headers, "Field")
	for _, d := range docs {
		headers = append(headers, d.Name)
	}

	var rows []gridRow
	rows = append(rows, g.infoRows(docs)...)
	rows = append(rows, g.serverRows(docs)...)
	rows = append(rows, g.securityRows(docs, res.SecuritySchemes)...)
	rows = append(rows, g.endpointRows(docs, res.Endpoints)...)
	rows = append(rows, g.schemaRows(docs, res.Schemas)...)

	cells := make([][]string, len(rows))
	kinds := make([]rowKind, len(rows))
	for i, r := range rows {
		cells[i] = r.cells
		kinds[i] = r.kind
	}
	return g.newTable(headers, cells, kinds).String()
}

func (g *Grid) sectionRow(sec Section, label string, docs []*spec.Document, summary func(*spec.Document) string) gridRow {
	arrow := "▸"
	if g.Expanded[sec] {
		arrow = "▾"
	}
	cells := []string{arrow + " " + label}
	for _, d := range docs {
		cells = append(cells, summary(d))
	}
	return gridRow{kind: kindSection, cells: cells}
}

func fieldRow(label string, docs []*spec.Document, value func(*spec.Document) string) gridRow {
	cells := []string{"  " + label}
	for _, d := range docs {
		cells = append(cells, value(d))
	}
	return gridRow{kind: kindField, cells: cells}
}

func (g *Grid) infoRows(docs []*spec.Document) []gridRow {
	rows := []gridRow{g.sectionRow(SectionInfo, "API Information", docs, func(d *spec.Document) string {
		return orDefault(d.Info.Title, "No title")
	})}
	if !g.Expanded[SectionInfo] {
		return rows
	}
	fields := []struct {
		label string
		get   func(*spec.Document) any
	}{
		{"Title", func(d *spec.Document) any { return d.Info.Title }},
		{"Version", func(d *spec.Document) any { return d.Info.Version }},
		{"Description", func(d *spec.Document) any { return d.Info.Description }},
		{"Terms of Service", func(d *spec.Document) any { return d.Info.TermsOfService }},
		{"Contact Name", func(d *spec.Document) any {
			if d.Info.Contact == nil {
				return d.Info.Extra["contact"]
			}
			return d.Info.Contact.Name
		}},
		{"Contact Email", func(d *spec.Document) any {
			if d.Info.Contact == nil {
				return nil
			}
			return d.Info.Contact.Email
		}},
		{"Contact URL", func(d *spec.Document) any {
			if d.Info.Contact == nil {
				return nil
			}
			return d.Info.Contact.URL
		}},
		{"License", func(d *spec.Document) any {
			if d.Info.License == nil {
				return d.Info.Extra["license"]
			}
			return d.Info.License.Name
		}},
		{"License URL", func(d *spec.Document) any {
			if d.Info.License == nil {
				return nil
			}
			return d.Info.License.URL
		}},
		{"OpenAPI Version", func(d *spec.Document) any { return d.SpecVersion }},
	}
	for _, f := range fields {
		rows = append(rows, fieldRow(f.label, docs, func(d *spec.Document) string {
			return truncate(orDefault(f.get(d), empty))
		}))
	}
	return rows
}

func (g *Grid) serverRows(docs []*spec.Document) []gridRow {
	rows := []gridRow{g.sectionRow(SectionServers, "Servers", docs, func(d *spec.Document) string {
		return countLabel(len(d.Servers), "server", "servers")
	})}
	if !g.Expanded[SectionServers] {
		return rows
	}
	most := 0
	for _, d := range docs {
		most = max(most, len(d.Servers))
	}
	for i := 0; i < most; i++ {
		label := fmt.Sprintf("Server %d", i+1)
		if i == 0 {
			label = "Primary Server"
		}
		rows = append(rows, fieldRow(label, docs, func(d *spec.Document) string {
			if i >= len(d.Servers) {
				return empty
			}
			s := d.Servers[i]
			out := orDefault(s.URL, empty)
			if desc := display(s.Description); desc != "" {
				out += " (" + desc + ")"
			}
			return truncate(out)
		}))
	}
	return rows
}

func (g *Grid) securityRows(docs []*spec.Document, aligned []compare.SecuritySchemeRow) []gridRow {
	rows := []gridRow{g.sectionRow(SectionSecurity, "Security Schemes", docs, func(d *spec.Document) string {
		return countLabel(len(d.SecuritySchemes), "scheme", "schemes")
	})}
	if !g.Expanded[SectionSecurity] {
		return rows
	}
	for _, r := range aligned {
		cells := []string{"  " + marker(r.AllPresent) + " " + r.Name}
		for _, s := range r.PerDocument {
			if s == nil {
				cells = append(cells, empty)
				continue
			}
			parts := []string{orDefault(s.Type, "?")}
			for _, v := range []any{s.Scheme, s.In, s.Name, s.BearerFormat} {
				if str := display(v); str != "" {
					parts = append(parts, str)
				}
			}
			cells = append(cells, truncate(strings.Join(parts, " · ")))
		}
		rows = append(rows, gridRow{kind: kindField, cells: cells})
	}
	return rows
}

func (g *Grid) endpointRows(docs []*spec.Document, aligned []compare.EndpointRow) []gridRow {
	rows := []gridRow{g.sectionRow(SectionEndpoints, "Endpoints", docs, func(d *spec.Document) string {
		return countLabel(len(d.Endpoints), "endpoint", "endpoints")
	})}
	if !g.Expanded[SectionEndpoints] {
		return rows
	}
	for _, r := range aligned {
		cells := []string{"  " + marker(r.AllPresent) + " " + r.Key}
		for _, ep := range r.PerDocument {
			if ep == nil {
				cells = append(cells, empty)
				continue
			}
			label := ep.Summary
			if label == "" {
				label = ep.OperationID
			}
			if label == "" {
				label = markPresent
			}
			cells = append(cells, truncate(label))
		}
		rows = append(rows, gridRow{kind: kindField, cells: cells})
	}
	return rows
}

func (g *Grid) schemaRows(docs []*spec.Document, aligned []compare.SchemaRow) []gridRow {
	rows := []gridRow{g.sectionRow(SectionSchemas, "Schemas", docs, func(d *spec.Document) string {
		return countLabel(len(d.Schemas), "schema", "schemas")
	})}
	if !g.Expanded[SectionSchemas] {
		return rows
	}
	for _, r := range aligned {
		cells := []string{"  " + marker(r.AllPresent) + " " + r.Name}
		for _, s := range r.PerDocument {
			if s == nil {
				cells = append(cells, empty)
				continue
			}
			cells = append(cells, fmt.Sprintf("%s (%s, %d required)",
				s.Type, countLabel(len(s.Properties), "property", "properties"), len(s.Required)))
		}
		rows = append(rows, gridRow{kind: kindField, cells: cells})
	}
	return rows
}

func (g *Grid) newTable(headers []string, rows [][]string, kinds []rowKind) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(g.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return g.styles.header
			}
			if row >= 0 && row < len(rows) && col > 0 && col < len(rows[row]) && rows[row][col] == empty {
				return g.styles.faint
			}
			if kinds != nil && row >= 0 && row < len(kinds) && kinds[row] == kindSection {
				return g.styles.section
			}
			return g.styles.cell
		})
	if g.Width > 0 {
		t = t.Width(g.Width)
	}
	return t
}

func summaryLine(s compare.Summary) string {
	return fmt.Sprintf("%d documents · endpoints %d/%d consistent · schemas %d/%d consistent · security schemes %d/%d consistent",
		s.Documents,
		s.Endpoints.Consistent, s.Endpoints.Rows,
		s.Schemas.Consistent, s.Schemas.Rows,
		s.SecuritySchemes.Consistent, s.SecuritySchemes.Rows)
}

func marker(allPresent bool) string {
	if allPresent {
		return markPresent
	}
	return markMissing
}

func countLabel(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

// display formats a passed-through JSON value. Absent and empty values yield "".
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func orDefault(v any, def string) string {
	if s := display(v); s != "" {
		return s
	}
	return def
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCell {
		return s
	}
	r := []rune(s)
	return string(r[:maxCell-1]) + "…"
}
