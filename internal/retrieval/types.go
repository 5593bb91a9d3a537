// Package retrieval provides the lab knowledge base: typed records for
// equipment, project ideas and lab people, and semantic retrieval over them
// by embedding similarity.
package retrieval

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Category partitions the knowledge base. Queries retrieve within a single
// category; the router decides which one from the intent.
type Category string

const (
	CategoryEquipment   Category = "equipment"
	CategoryProjects    Category = "projects"
	CategoryAuthorities Category = "authorities"
	CategoryGeneral     Category = "general"
)

// Record is one knowledge base entry. The concrete types carry the fields
// the orchestrator needs for prompt formatting; Document is the text the
// retriever embeds and ranks.
type Record interface {
	// Kind returns the record's category.
	Kind() Category

	// Label returns the record's display name.
	Label() string

	// Document returns the text representation used for embedding.
	Document() string
}

// Scored pairs a record with its cosine similarity to a query.
type Scored struct {
	Record     Record
	Similarity float64
}

// Equipment is one inventory item.
type Equipment struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Capabilities string `json:"capabilities"`
	Quantity     int    `json:"quantity"`
	Available    int    `json:"available"`

	// Specs holds key/value specification pairs. Inventory files written by
	// hand sometimes carry a plain string instead; see UnmarshalJSON.
	Specs map[string]string `json:"specs"`

	// SpecOrder preserves the spec key order from the source file, so the
	// "top two specs" shown in prompts are the ones the curator listed first.
	SpecOrder []string `json:"-"`
}

// Kind implements Record.
func (e *Equipment) Kind() Category { return CategoryEquipment }

// Label implements Record.
func (e *Equipment) Label() string { return e.Name }

// Document implements Record.
func (e *Equipment) Document() string {
	var b strings.Builder
	b.WriteString(e.Name)
	if e.Category != "" {
		b.WriteString(". Category: ")
		b.WriteString(e.Category)
	}
	for _, k := range e.SpecOrder {
		fmt.Fprintf(&b, ". %s: %s", k, e.Specs[k])
	}
	if e.Capabilities != "" {
		b.WriteString(". Capabilities: ")
		b.WriteString(e.Capabilities)
	}
	return b.String()
}

// TopSpecs returns up to n specs in source order as "key: value" strings.
func (e *Equipment) TopSpecs(n int) []string {
	var out []string
	for _, k := range e.SpecOrder {
		if len(out) == n {
			break
		}
		out = append(out, k+": "+e.Specs[k])
	}
	return out
}

// UnmarshalJSON accepts both spec shapes found in inventory files: an object
// of key/value pairs, or a single prose string (stored under the "specs"
// key).
func (e *Equipment) UnmarshalJSON(data []byte) error {
	type alias struct {
		Name         string          `json:"name"`
		Category     string          `json:"category"`
		Capabilities string          `json:"capabilities"`
		Quantity     int             `json:"quantity"`
		Available    int             `json:"available"`
		Specs        json.RawMessage `json:"specs"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	e.Name = a.Name
	e.Category = a.Category
	e.Capabilities = a.Capabilities
	e.Quantity = a.Quantity
	e.Available = a.Available
	e.Specs = nil
	e.SpecOrder = nil

	if len(a.Specs) == 0 || string(a.Specs) == "null" {
		return nil
	}
	var asMap map[string]string
	if err := json.Unmarshal(a.Specs, &asMap); err == nil {
		e.Specs = asMap
		for k := range asMap {
			e.SpecOrder = append(e.SpecOrder, k)
		}
		sort.Strings(e.SpecOrder)
		return nil
	}
	var asString string
	if err := json.Unmarshal(a.Specs, &asString); err == nil {
		e.Specs = map[string]string{"specs": asString}
		e.SpecOrder = []string{"specs"}
		return nil
	}
	return fmt.Errorf("retrieval: equipment %q has malformed specs", a.Name)
}

// Project is one project idea from the project database.
type Project struct {
	Title       string   `json:"project_title"`
	Description string   `json:"description"`
	Hardware    []string `json:"hardware_needed"`
	Difficulty  string   `json:"difficulty"`
}

// Kind implements Record.
func (p *Project) Kind() Category { return CategoryProjects }

// Label implements Record.
func (p *Project) Label() string { return p.Title }

// Document implements Record.
func (p *Project) Document() string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Difficulty != "" {
		fmt.Fprintf(&b, " (%s)", p.Difficulty)
	}
	if len(p.Hardware) > 0 {
		b.WriteString(". Hardware: ")
		b.WriteString(strings.Join(p.Hardware, ", "))
	}
	if p.Description != "" {
		b.WriteString(". ")
		b.WriteString(p.Description)
	}
	return b.String()
}

// Authority is one person associated with the lab or university.
type Authority struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Expertise   string `json:"expertise"`
	Description string `json:"description"`
}

// Kind implements Record.
func (a *Authority) Kind() Category { return CategoryAuthorities }

// Label implements Record.
func (a *Authority) Label() string { return a.Name }

// Document implements Record.
func (a *Authority) Document() string {
	var b strings.Builder
	b.WriteString(a.Name)
	if a.Role != "" {
		b.WriteString(" - ")
		b.WriteString(a.Role)
	}
	if a.Expertise != "" {
		b.WriteString(". Expertise: ")
		b.WriteString(a.Expertise)
	}
	if a.Description != "" {
		b.WriteString(". ")
		b.WriteString(a.Description)
	}
	return b.String()
}

// Generic is a free-form record for lab facts that fit no structured type.
type Generic struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Kind implements Record.
func (g *Generic) Kind() Category { return CategoryGeneral }

// Label implements Record.
func (g *Generic) Label() string { return g.Name }

// Document implements Record.
func (g *Generic) Document() string {
	if g.Name == "" {
		return g.Content
	}
	return g.Name + ". " + g.Content
}
