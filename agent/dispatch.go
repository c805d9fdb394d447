package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/acaihq/acai/llm"
)

// Dispatcher routes function calls to the session's enabled tools. Arguments
// are validated against each tool's declared schema before execution, and
// every call is bounded by the configured timeout. A call naming a disabled
// or unknown tool yields a diagnostic output rather than a failure, so the
// conversation stays resumable.
type Dispatcher struct {
	tools    map[string]Tool
	resolved map[string]*jsonschema.Resolved
	names    []string
	timeout  time.Duration
}

// NewDispatcher builds a Dispatcher for the enabled tool names. Names outside
// the built-in set are a configuration error.
func NewDispatcher(enabled []string, workDir string, timeout time.Duration) (*Dispatcher, error) {
	available := builtinTools(workDir)

	d := &Dispatcher{
		tools:    make(map[string]Tool, len(enabled)),
		resolved: make(map[string]*jsonschema.Resolved, len(enabled)),
		names:    make([]string, 0, len(enabled)),
		timeout:  timeout,
	}

	for _, name := range enabled {
		tool, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		res, err := tool.Schema().Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for tool %q: %w", name, err)
		}
		d.tools[name] = tool
		d.resolved[name] = res
		d.names = append(d.names, name)
	}

	return d, nil
}

// Names returns the enabled tool names in their configured order.
func (d *Dispatcher) Names() []string {
	names := make([]string, len(d.names))
	copy(names, d.names)
	return names
}

// Definitions returns the tool declarations sent with each model request.
func (d *Dispatcher) Definitions() ([]llm.ToolDefinition, error) {
	defs := make([]llm.ToolDefinition, 0, len(d.names))
	for _, name := range d.names {
		tool := d.tools[name]
		params, err := schemaParameters(tool.Schema())
		if err != nil {
			return nil, err
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  params,
		})
	}
	return defs, nil
}

// Dispatch executes all calls from one turn and returns their outputs in
// call order. Calls run concurrently; results are reassembled by index
// before returning, so emitted output order always matches call order.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []llm.FunctionCallItem) []llm.Item {
	outputs := make([]llm.Item, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, fc llm.FunctionCallItem) {
			defer wg.Done()
			outputs[idx] = llm.NewFunctionCallOutputItem(fc.CallID, d.dispatchOne(ctx, fc))
		}(i, call)
	}
	wg.Wait()
	return outputs
}

// dispatchOne runs a single call through the full pipeline: lookup, argument
// repair and validation, bounded execution. Every failure path produces a
// diagnostic string, never a silent success.
func (d *Dispatcher) dispatchOne(ctx context.Context, call llm.FunctionCallItem) string {
	tool, ok := d.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Error: unsupported tool %q; enabled tools: %v", call.Name, d.names)
	}

	args, err := d.validateArguments(call)
	if err != nil {
		return "Error: " + err.Error()
	}

	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	output, err := tool.Run(runCtx, args)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			execErr := &ToolExecutionError{Tool: call.Name, Cause: fmt.Errorf("timed out after %s", d.timeout)}
			return "Error: " + execErr.Error()
		}
		execErr := &ToolExecutionError{Tool: call.Name, Cause: err}
		return "Error: " + execErr.Error()
	}
	return output
}

// validateArguments parses the serialized argument payload, repairing
// malformed JSON the model occasionally emits, and validates the result
// against the tool's declared schema. Returns normalized JSON for Run.
func (d *Dispatcher) validateArguments(call llm.FunctionCallItem) (json.RawMessage, error) {
	raw := call.Arguments
	if raw == "" {
		raw = "{}"
	}

	var parsed map[string]interface{}
	if err := unmarshalLenient([]byte(raw), &parsed); err != nil {
		return nil, &ToolValidationError{Tool: call.Name, Cause: err}
	}

	if err := d.resolved[call.Name].Validate(parsed); err != nil {
		return nil, &ToolValidationError{Tool: call.Name, Cause: err}
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return nil, &ToolValidationError{Tool: call.Name, Cause: err}
	}
	return normalized, nil
}

// unmarshalLenient unmarshals JSON, attempting a repair pass on syntax
// errors before giving up.
func unmarshalLenient(data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return repairErr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
