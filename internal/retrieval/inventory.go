package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Inventory is the equipment list loaded from the inventory file. It backs
// both the keyword detector and the fast substring pre-check that runs before
// semantic retrieval for equipment queries.
type Inventory struct {
	Items []*Equipment
}

// LoadInventory reads an inventory file. Both shapes in circulation are
// accepted: a bare JSON array of items, or an object with an "equipment"
// array.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("retrieval: read inventory: %w", err)
	}

	var items []*Equipment
	if err := json.Unmarshal(data, &items); err == nil {
		return &Inventory{Items: items}, nil
	}

	var wrapper struct {
		Equipment []*Equipment `json:"equipment"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("retrieval: parse inventory %s: %w", path, err)
	}
	return &Inventory{Items: wrapper.Equipment}, nil
}

// Search returns items whose name, category or capabilities contain the
// query, case-insensitively. It is a cheap exact-knowledge pre-check: when
// the user names a product, the right record beats any embedding ranking.
func (inv *Inventory) Search(query string) []*Equipment {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var out []*Equipment
	for _, item := range inv.Items {
		if strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.Category), query) ||
			strings.Contains(strings.ToLower(item.Capabilities), query) {
			out = append(out, item)
		}
	}
	return out
}

