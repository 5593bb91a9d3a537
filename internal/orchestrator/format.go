package orchestrator

import (
	"fmt"
	"strings"

	"github.com/wiredbrain/axiom/internal/retrieval"
)

// formatRecords renders retrieved records as the DATA block of the prompt.
// Each record type has its own layout: the model answers noticeably better
// when availability and hardware lists are spelled out than when handed raw
// documents.
func formatRecords(records []retrieval.Record) string {
	if len(records) == 0 {
		return "No specific data available."
	}

	switch records[0].(type) {
	case *retrieval.Authority:
		return formatAuthorities(records)
	case *retrieval.Project:
		return formatProjects(records)
	case *retrieval.Equipment:
		return formatEquipment(records)
	}

	// Unknown record types fall back to their document text, top two only.
	var lines []string
	for _, r := range records {
		if len(lines) == 2 {
			break
		}
		lines = append(lines, r.Document())
	}
	return strings.Join(lines, "\n")
}

func formatAuthorities(records []retrieval.Record) string {
	var blocks []string
	for i, r := range records {
		if i == 3 {
			break
		}
		auth, ok := r.(*retrieval.Authority)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%d. %s - %s", i+1, auth.Name, auth.Role)
		if auth.Expertise != "" {
			line += "\n   Expertise: " + auth.Expertise
		}
		if auth.Description != "" {
			line += "\n   Details: " + auth.Description
		}
		blocks = append(blocks, line)
	}
	if len(blocks) == 0 {
		return "No authority information found."
	}
	return strings.Join(blocks, "\n\n")
}

func formatProjects(records []retrieval.Record) string {
	var blocks []string
	for i, r := range records {
		if i == 3 {
			break
		}
		proj, ok := r.(*retrieval.Project)
		if !ok {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("%d. %s (%s)\n   Hardware: %s\n   Details: %s",
			i+1, proj.Title, proj.Difficulty, strings.Join(proj.Hardware, ", "), proj.Description))
	}
	if len(blocks) == 0 {
		return "No project ideas found in database."
	}
	return strings.Join(blocks, "\n\n")
}

func formatEquipment(records []retrieval.Record) string {
	var blocks []string
	for i, r := range records {
		if i == 3 {
			break
		}
		item, ok := r.(*retrieval.Equipment)
		if !ok {
			continue
		}
		availability := "Currently unavailable"
		if item.Available > 0 {
			availability = fmt.Sprintf("IN STOCK (%d/%d)", item.Available, item.Quantity)
		}
		line := fmt.Sprintf("- %s: %s", item.Name, availability)
		if specs := item.TopSpecs(2); len(specs) > 0 {
			line += "\n  Specs: " + strings.Join(specs, ", ")
		}
		blocks = append(blocks, line)
	}
	if len(blocks) == 0 {
		return "No equipment information found."
	}
	return strings.Join(blocks, "\n\n")
}
