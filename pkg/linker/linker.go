// Package linker turns a module graph into a single self-contained bundle.
//
// Architecture:
//   - Serialize the graph as a JSON table of identity -> dependencies + code.
//   - Prefix it with a small CommonJS loader that evaluates modules lazily on
//     first require and caches their exports.
//   - Write the result atomically to the configured output.
package linker

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/coldog/minipack/pkg/graph"
	"github.com/coldog/minipack/pkg/logging"
)

type record struct {
	Dependencies map[string]string `json:"dependencies"`
	Code         string            `json:"code"`
}

// table encodes the graph with sorted keys, so unchanged graphs always encode
// to the same bytes.
func table(g *graph.Graph) ([]byte, error) {
	t := make(map[string]record, len(g.Modules))
	for id, m := range g.Modules {
		deps := m.Dependencies
		if deps == nil {
			deps = map[string]string{}
		}
		t[id] = record{Dependencies: deps, Code: m.Code}
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Generate returns the bundle for g. Evaluating the bundle requires the entry
// module and yields its exports.
func Generate(g *graph.Graph) ([]byte, error) {
	if _, ok := g.Modules[g.Entry]; !ok {
		return nil, fmt.Errorf("linker: entry %q is not in the graph", g.Entry)
	}

	data, err := table(g)
	if err != nil {
		return nil, fmt.Errorf("linker: encode module table: %w", err)
	}
	entry, err := json.Marshal(g.Entry)
	if err != nil {
		return nil, fmt.Errorf("linker: encode entry: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(runtime)+len(data)+len(entry)+len(footer)+4))
	buf.WriteString(runtime)
	buf.Write(entry)
	buf.WriteString(footer)
	buf.Write(data)
	buf.WriteString(");\n")

	logging.Logger().Debug("bundle generated",
		zap.String("entry", g.Entry),
		zap.Int("modules", len(g.Modules)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
