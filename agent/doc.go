// Package agent implements the turn loop that drives a conversation between
// a model API and local tools, and the line-delimited event protocol that
// describes the interaction.
//
// # Architecture
//
// The package is organized around four concepts:
//
//   - Session: the central orchestrator. It owns the conversation history,
//     exchanges turns with an llm.Client, routes function calls to the
//     Dispatcher, accumulates token usage, and decides when the conversation
//     is done.
//   - Emitter: serializes typed records (init, message, reasoning,
//     function_call, function_call_output, result) one JSON object per line.
//     In non-streaming mode a no-op emitter is used and only the final
//     assistant text is returned.
//   - Dispatcher: maps function call names to the enabled tools, validates
//     arguments against each tool's declared schema, and executes calls with
//     a per-call timeout. Outputs are returned in call order regardless of
//     completion order.
//   - Accumulator: monotonically sums per-turn token usage into the session
//     total reported in the terminal result record.
//
// # Quick Start
//
//	client, _ := llm.NewGollmClient("openai", "")
//	emitter := agent.NewStreamEmitter(os.Stdout)
//	session, _ := agent.NewSession(client, emitter, agent.SessionConfig{
//	    Tools: []string{"shell"},
//	})
//
//	result, err := session.Run(ctx, []llm.Item{
//	    llm.NewMessageItem(llm.RoleSystem, systemPrompt),
//	    llm.NewMessageItem(llm.RoleUser, "list the files here"),
//	})
package agent
