// Package mock provides a mock implementation of the llm.Generator interface
// for testing.
package mock

import (
	"context"
	"sync"

	"github.com/wiredbrain/axiom/pkg/provider/llm"
)

// Ensure Generator implements the llm.Generator interface.
var _ llm.Generator = (*Generator)(nil)

// Generator is a scriptable llm.Generator.
type Generator struct {
	mu sync.Mutex

	// Response is returned by every Generate call.
	Response string

	// Err, if set, is returned by every Generate call.
	Err error

	// NotReady makes Ready report false.
	NotReady bool

	// Calls records every request passed to Generate.
	Calls []llm.Request
}

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls = append(g.Calls, req)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}

// Ready implements llm.Generator.
func (g *Generator) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.NotReady
}
