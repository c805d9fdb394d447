package agent

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/acaihq/acai/llm"
)

// RecordType identifies the type of a stream record.
type RecordType string

const (
	RecordInit               RecordType = "init"
	RecordMessage            RecordType = "message"
	RecordReasoning          RecordType = "reasoning"
	RecordFunctionCall       RecordType = "function_call"
	RecordFunctionCallOutput RecordType = "function_call_output"
	RecordResult             RecordType = "result"
)

// Record is one typed entry in the line-delimited stream.
type Record interface {
	recordType() RecordType
}

// InitRecord is the first record of a streaming session.
type InitRecord struct {
	Type      RecordType `json:"type"`
	SessionID string     `json:"session_id"`
	Cwd       string     `json:"cwd"`
	Tools     []string   `json:"tools"`
}

func (r InitRecord) recordType() RecordType { return RecordInit }

// MessageRecord carries one conversation message.
type MessageRecord struct {
	Type    RecordType `json:"type"`
	Role    llm.Role   `json:"role"`
	Content string     `json:"content"`
	ID      string     `json:"id,omitempty"`
	Status  string     `json:"status,omitempty"`
}

func (r MessageRecord) recordType() RecordType { return RecordMessage }

// ReasoningRecord carries model reasoning summaries.
type ReasoningRecord struct {
	Type    RecordType `json:"type"`
	ID      string     `json:"id"`
	Summary []string   `json:"summary"`
}

func (r ReasoningRecord) recordType() RecordType { return RecordReasoning }

// FunctionCallRecord describes a model-issued tool invocation.
type FunctionCallRecord struct {
	Type      RecordType `json:"type"`
	ID        string     `json:"id"`
	CallID    string     `json:"call_id"`
	Name      string     `json:"name"`
	Arguments string     `json:"arguments"`
}

func (r FunctionCallRecord) recordType() RecordType { return RecordFunctionCall }

// FunctionCallOutputRecord carries the result of a dispatched call. CallID
// always references a prior function_call record.
type FunctionCallOutputRecord struct {
	Type   RecordType `json:"type"`
	CallID string     `json:"call_id"`
	Output string     `json:"output"`
}

func (r FunctionCallOutputRecord) recordType() RecordType { return RecordFunctionCallOutput }

// ResultRecord is the terminal record: exactly one per session, always last.
type ResultRecord struct {
	Type       RecordType `json:"type"`
	Success    bool       `json:"success"`
	Subtype    string     `json:"subtype"` // "success" or "error"
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	TurnCount  int        `json:"turn_count"`
	Usage      UsageStats `json:"usage"`
}

func (r ResultRecord) recordType() RecordType { return RecordResult }

// RecordForItem converts a conversation item into its stream record.
func RecordForItem(item llm.Item) Record {
	switch item.Kind {
	case llm.ItemMessage:
		return MessageRecord{
			Type:    RecordMessage,
			Role:    item.Message.Role,
			Content: item.Message.Content,
			ID:      item.Message.ID,
			Status:  item.Message.Status,
		}
	case llm.ItemFunctionCall:
		return FunctionCallRecord{
			Type:      RecordFunctionCall,
			ID:        item.FunctionCall.ID,
			CallID:    item.FunctionCall.CallID,
			Name:      item.FunctionCall.Name,
			Arguments: item.FunctionCall.Arguments,
		}
	case llm.ItemFunctionCallOutput:
		return FunctionCallOutputRecord{
			Type:   RecordFunctionCallOutput,
			CallID: item.FunctionCallOutput.CallID,
			Output: item.FunctionCallOutput.Output,
		}
	case llm.ItemReasoning:
		return ReasoningRecord{
			Type:    RecordReasoning,
			ID:      item.Reasoning.ID,
			Summary: item.Reasoning.Summary,
		}
	}
	return nil
}

// Emitter receives records as the session produces them.
type Emitter interface {
	Emit(record Record) error
}

// StreamEmitter writes one complete JSON object per line, in submission
// order, with no partial-object interleaving under concurrent producers.
// After a result record is written the stream is sealed; further emits
// return a ProtocolError.
type StreamEmitter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	sealed bool
}

// NewStreamEmitter creates a StreamEmitter writing to w.
func NewStreamEmitter(w io.Writer) *StreamEmitter {
	return &StreamEmitter{enc: json.NewEncoder(w)}
}

// Emit serializes the record as one line.
func (e *StreamEmitter) Emit(record Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return &ProtocolError{Message: "record emitted after terminal result"}
	}
	if record.recordType() == RecordResult {
		e.sealed = true
	}
	return e.enc.Encode(record)
}

// NopEmitter discards all records. Used in non-streaming mode, where the
// session's output is solely the final assistant text.
type NopEmitter struct{}

func (NopEmitter) Emit(Record) error { return nil }
