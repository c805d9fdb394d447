package llm

import "strings"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ItemKind discriminates between conversation item types.
type ItemKind string

const (
	ItemMessage            ItemKind = "message"
	ItemFunctionCall       ItemKind = "function_call"
	ItemFunctionCallOutput ItemKind = "function_call_output"
	ItemReasoning          ItemKind = "reasoning"
)

// Item is a single entry in the conversation history. Exactly one of the
// pointer fields is set, matching Kind.
type Item struct {
	Kind               ItemKind                `json:"kind"`
	Message            *MessageItem            `json:"message,omitempty"`
	FunctionCall       *FunctionCallItem       `json:"function_call,omitempty"`
	FunctionCallOutput *FunctionCallOutputItem `json:"function_call_output,omitempty"`
	Reasoning          *ReasoningItem          `json:"reasoning,omitempty"`
}

// MessageItem holds a plain conversation message. ID and Status are set only
// on assistant messages echoed back by the provider.
type MessageItem struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status,omitempty"`
}

// FunctionCallItem is a model-issued request to invoke a named tool.
// Arguments is the serialized JSON payload exactly as the model produced it.
type FunctionCallItem struct {
	ID        string `json:"id"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// FunctionCallOutputItem carries the textual result of a dispatched call.
// CallID correlates it to a prior FunctionCallItem.
type FunctionCallOutputItem struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// ReasoningItem holds model reasoning summaries. Informative only; the agent
// loop never branches on it.
type ReasoningItem struct {
	ID      string   `json:"id"`
	Summary []string `json:"summary"`
}

// NewMessageItem creates a message Item.
func NewMessageItem(role Role, content string) Item {
	return Item{Kind: ItemMessage, Message: &MessageItem{Role: role, Content: content}}
}

// NewAssistantMessageItem creates an assistant message Item with provider
// identifier and status.
func NewAssistantMessageItem(content, id, status string) Item {
	return Item{Kind: ItemMessage, Message: &MessageItem{
		Role:    RoleAssistant,
		Content: content,
		ID:      id,
		Status:  status,
	}}
}

// NewFunctionCallItem creates a function call Item.
func NewFunctionCallItem(id, callID, name, arguments string) Item {
	return Item{Kind: ItemFunctionCall, FunctionCall: &FunctionCallItem{
		ID:        id,
		CallID:    callID,
		Name:      name,
		Arguments: arguments,
	}}
}

// NewFunctionCallOutputItem creates a function call output Item.
func NewFunctionCallOutputItem(callID, output string) Item {
	return Item{Kind: ItemFunctionCallOutput, FunctionCallOutput: &FunctionCallOutputItem{
		CallID: callID,
		Output: output,
	}}
}

// NewReasoningItem creates a reasoning Item.
func NewReasoningItem(id string, summary []string) Item {
	return Item{Kind: ItemReasoning, Reasoning: &ReasoningItem{ID: id, Summary: summary}}
}

// TextContent returns the message text of a message item, or "" for other kinds.
func (i Item) TextContent() string {
	if i.Kind == ItemMessage && i.Message != nil {
		return i.Message.Content
	}
	return ""
}

// FunctionCalls extracts all function call items, preserving order.
func FunctionCalls(items []Item) []FunctionCallItem {
	var calls []FunctionCallItem
	for _, item := range items {
		if item.Kind == ItemFunctionCall && item.FunctionCall != nil {
			calls = append(calls, *item.FunctionCall)
		}
	}
	return calls
}

// FinalAssistantText returns the content of the last assistant message in
// items, or "" if there is none.
func FinalAssistantText(items []Item) string {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.Kind == ItemMessage && item.Message != nil && item.Message.Role == RoleAssistant {
			return item.Message.Content
		}
	}
	return ""
}

// ToolDefinition describes a tool for the model (serializable metadata).
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// TurnConfig carries per-request model parameters and the declared tools.
type TurnConfig struct {
	Model       string           `json:"model"`
	Temperature *float64         `json:"temperature,omitempty"`
	TopP        *float64         `json:"top_p,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
}

// Usage tracks token consumption for a single turn.
type Usage struct {
	InputTokens           int `json:"input_tokens"`
	CachedInputTokens     int `json:"cached_input_tokens"`
	OutputTokens          int `json:"output_tokens"`
	ReasoningOutputTokens int `json:"reasoning_output_tokens"`
	TotalTokens           int `json:"total_tokens"`
}

// Add returns a new Usage that is the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:           u.InputTokens + other.InputTokens,
		CachedInputTokens:     u.CachedInputTokens + other.CachedInputTokens,
		OutputTokens:          u.OutputTokens + other.OutputTokens,
		ReasoningOutputTokens: u.ReasoningOutputTokens + other.ReasoningOutputTokens,
		TotalTokens:           u.TotalTokens + other.TotalTokens,
	}
}

// TurnResponse is the decomposed result of one model round-trip. Items holds
// message, reasoning, and function_call items in the order the provider
// produced them.
type TurnResponse struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
	Usage Usage  `json:"usage"`
}

// Text returns the concatenated text of all message items in the response.
func (r TurnResponse) Text() string {
	var sb strings.Builder
	for _, item := range r.Items {
		if item.Kind == ItemMessage && item.Message != nil {
			sb.WriteString(item.Message.Content)
		}
	}
	return sb.String()
}
