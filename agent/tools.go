package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a named local capability the model may invoke. Implementations
// declare an argument schema; the Dispatcher validates arguments against it
// before Run is called. Run receives arguments as well-formed JSON.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Run(ctx context.Context, args json.RawMessage) (string, error)
}

// builtinTools is the closed set of capabilities that can be enabled for a
// session. Names the model invents route to a diagnostic output instead.
func builtinTools(workDir string) map[string]Tool {
	return map[string]Tool{
		"shell": NewShellTool(workDir),
	}
}

// BuiltinToolNames returns the names of all available tools, sorted.
func BuiltinToolNames() []string {
	tools := builtinTools("")
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// schemaParameters converts a tool schema to the generic map shape the model
// API expects in tool declarations.
func schemaParameters(s *jsonschema.Schema) (map[string]interface{}, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal tool schema: %w", err)
	}
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("unmarshal tool schema: %w", err)
	}
	return params, nil
}
