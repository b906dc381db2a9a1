package render

import (
	"fmt"
	"sort"
	"strings"
)

// Section names one collapsible block of the comparison grid.
type Section string

const (
	SectionInfo      Section = "info"
	SectionServers   Section = "servers"
	SectionSecurity  Section = "security"
	SectionEndpoints Section = "endpoints"
	SectionSchemas   Section = "schemas"
)

// AllSections lists the sections in display order.
var AllSections = []Section{SectionInfo, SectionServers, SectionSecurity, SectionEndpoints, SectionSchemas}

// Sections is the expand/collapse state of the grid, keyed by section.
type Sections map[Section]bool

// DefaultSections expands the information block only.
func DefaultSections() Sections {
	return Sections{SectionInfo: true}
}

// ExpandAll returns a state with every section expanded.
func ExpandAll() Sections {
	s := make(Sections, len(AllSections))
	for _, sec := range AllSections {
		s[sec] = true
	}
	return s
}

// Toggle flips the state of one section and returns the new state.
func (s Sections) Toggle(sec Section) Sections {
	next := make(Sections, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	next[sec] = !s[sec]
	return next
}

// ParseSections builds an expand state from names such as "info,endpoints".
// "all" expands everything and "none" collapses everything.
func ParseSections(names []string) (Sections, error) {
	s := Sections{}
	for _, raw := range names {
		for _, part := range strings.Split(raw, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			switch name {
			case "":
				continue
			case "all":
				return ExpandAll(), nil
			case "none":
				s = Sections{}
				continue
			}
			sec, ok := lookupSection(name)
			if !ok {
				return nil, fmt.Errorf("unknown section %q (allowed: %s, all, none)", name, sectionNames())
			}
			s[sec] = true
		}
	}
	return s, nil
}

func lookupSection(name string) (Section, bool) {
	switch name {
	case "security-schemes", "securityschemes":
		return SectionSecurity, true
	case "paths":
		return SectionEndpoints, true
	}
	for _, sec := range AllSections {
		if string(sec) == name {
			return sec, true
		}
	}
	return "", false
}

func sectionNames() string {
	names := make([]string, 0, len(AllSections))
	for _, s := range AllSections {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
