package llm

import (
	"testing"
)

func TestFunctionCallsPreservesOrder(t *testing.T) {
	items := []Item{
		NewReasoningItem("rs_1", []string{"thinking"}),
		NewFunctionCallItem("fc_1", "call_1", "shell", `{"command":"ls"}`),
		NewAssistantMessageItem("running two commands", "msg_1", "completed"),
		NewFunctionCallItem("fc_2", "call_2", "shell", `{"command":"pwd"}`),
	}

	calls := FunctionCalls(items)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].CallID != "call_1" || calls[1].CallID != "call_2" {
		t.Errorf("call order not preserved: %q, %q", calls[0].CallID, calls[1].CallID)
	}
}

func TestFunctionCallsEmpty(t *testing.T) {
	items := []Item{
		NewMessageItem(RoleUser, "hello"),
		NewAssistantMessageItem("hi", "msg_1", "completed"),
	}
	if calls := FunctionCalls(items); calls != nil {
		t.Errorf("expected no calls, got %v", calls)
	}
}

func TestFinalAssistantText(t *testing.T) {
	items := []Item{
		NewMessageItem(RoleSystem, "be terse"),
		NewMessageItem(RoleUser, "question"),
		NewAssistantMessageItem("first answer", "msg_1", "completed"),
		NewFunctionCallOutputItem("call_1", "tool output"),
		NewAssistantMessageItem("final answer", "msg_2", "completed"),
	}
	if got := FinalAssistantText(items); got != "final answer" {
		t.Errorf("expected last assistant message, got %q", got)
	}
}

func TestFinalAssistantTextNone(t *testing.T) {
	items := []Item{NewMessageItem(RoleUser, "question")}
	if got := FinalAssistantText(items); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 100, CachedInputTokens: 20, OutputTokens: 50, ReasoningOutputTokens: 10, TotalTokens: 150}
	b := Usage{InputTokens: 200, CachedInputTokens: 0, OutputTokens: 30, ReasoningOutputTokens: 5, TotalTokens: 230}

	sum := a.Add(b)
	if sum.InputTokens != 300 || sum.OutputTokens != 80 || sum.TotalTokens != 380 {
		t.Errorf("unexpected sum: %+v", sum)
	}
	if sum.CachedInputTokens != 20 || sum.ReasoningOutputTokens != 15 {
		t.Errorf("unexpected detail sums: %+v", sum)
	}
}

func TestTurnResponseText(t *testing.T) {
	resp := TurnResponse{Items: []Item{
		NewAssistantMessageItem("part one ", "msg_1", "completed"),
		NewFunctionCallItem("fc_1", "call_1", "shell", "{}"),
		NewAssistantMessageItem("part two", "msg_2", "completed"),
	}}
	if got := resp.Text(); got != "part one part two" {
		t.Errorf("expected concatenated message text, got %q", got)
	}
}
