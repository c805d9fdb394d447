package agent

import "fmt"

// ToolValidationError reports function call arguments that fail the tool's
// declared schema. It is folded into a diagnostic function_call_output, never
// surfaced as a session failure.
type ToolValidationError struct {
	Tool  string
	Cause error
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Cause)
}

func (e *ToolValidationError) Unwrap() error { return e.Cause }

// ToolExecutionError reports a tool invocation that failed or timed out.
// Like validation failures it becomes a diagnostic output.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// ProtocolError reports an internal invariant violation, such as emitting a
// record after the terminal result or an output referencing an unknown call
// id. It indicates a defect in the engine and aborts the session.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Message
}
