// Package llm provides the model API client used by the agent loop. It wraps
// the gollm library (github.com/teilomillet/gollm) behind a small
// turn-oriented interface: the caller hands over the full conversation
// history and receives the typed items the model produced in response.
//
// The package owns retry policy and error classification. Callers get a
// single error per turn; transient provider failures (rate limits, 5xx,
// timeouts) are retried internally with exponential backoff before the error
// surfaces.
//
// # Quick Start
//
//	client, err := llm.NewGollmClient("openai", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.SendTurn(ctx, history, llm.TurnConfig{
//	    Model: "gpt-4o-mini",
//	})
//	for _, item := range resp.Items {
//	    // message, reasoning, and function_call items in arrival order
//	}
package llm
