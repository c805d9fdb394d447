package llm

import "context"

// Client is the turn-oriented model API abstraction consumed by the agent
// loop. SendTurn submits the full conversation history and returns the items
// the model produced in response. Implementations own retry policy; an error
// returned here is final for the turn.
type Client interface {
	SendTurn(ctx context.Context, history []Item, cfg TurnConfig) (*TurnResponse, error)
}
