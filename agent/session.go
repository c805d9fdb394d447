package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/acaihq/acai/llm"
)

// SessionConfig holds configuration for a session.
type SessionConfig struct {
	WorkingDir  string         `json:"working_dir"`
	Tools       []string       `json:"tools"`        // enabled tool names, in order
	MaxTurns    int            `json:"max_turns"`    // 0 = unlimited
	ToolTimeout time.Duration  `json:"tool_timeout"` // per function call
	Turn        llm.TurnConfig `json:"turn"`
}

// DefaultSessionConfig returns the default configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxTurns:    50,
		ToolTimeout: 60 * time.Second,
	}
}

// Result is the terminal summary of a session. Exactly one is produced per
// run, after which no further events follow.
type Result struct {
	Success   bool
	Subtype   string // "success" or "error"
	Error     string
	Duration  time.Duration
	TurnCount int
	Usage     UsageStats
	FinalText string // last assistant message; the sole output in non-streaming mode
}

// Record converts the result into its terminal stream record.
func (r *Result) Record() ResultRecord {
	return ResultRecord{
		Type:       RecordResult,
		Success:    r.Success,
		Subtype:    r.Subtype,
		Error:      r.Error,
		DurationMs: r.Duration.Milliseconds(),
		TurnCount:  r.TurnCount,
		Usage:      r.Usage,
	}
}

// Session drives one conversation from initiation to the terminal result.
// It exclusively owns the conversation history; the dispatcher and emitter
// receive data by value and retain nothing across calls.
type Session struct {
	id         string
	cwd        string
	startedAt  time.Time
	client     llm.Client
	emitter    Emitter
	dispatcher *Dispatcher
	config     SessionConfig
	history    []llm.Item
	usage      Accumulator
	turnCount  int
}

// NewSession creates a session with the given client, emitter, and
// configuration. Pass a NopEmitter for non-streaming mode.
func NewSession(client llm.Client, emitter Emitter, config SessionConfig) (*Session, error) {
	cwd := config.WorkingDir
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	dispatcher, err := NewDispatcher(config.Tools, cwd, config.ToolTimeout)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:         uuid.New().String(),
		cwd:        cwd,
		startedAt:  time.Now(),
		client:     client,
		emitter:    emitter,
		dispatcher: dispatcher,
		config:     config,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation history.
func (s *Session) History() []llm.Item {
	h := make([]llm.Item, len(s.history))
	copy(h, s.history)
	return h
}

// Run drives the conversation to a terminal condition: a final assistant
// message with no pending function calls, an unrecoverable API error, the
// turn limit, or cancellation. It always emits exactly one result record,
// last; the returned error is non-nil only for internal protocol violations
// or a broken event stream.
func (s *Session) Run(ctx context.Context, seed []llm.Item) (*Result, error) {
	defs, err := s.dispatcher.Definitions()
	if err != nil {
		return nil, err
	}
	turnCfg := s.config.Turn
	turnCfg.Tools = defs

	if err := s.emitter.Emit(InitRecord{
		Type:      RecordInit,
		SessionID: s.id,
		Cwd:       s.cwd,
		Tools:     s.dispatcher.Names(),
	}); err != nil {
		return nil, err
	}

	for _, item := range seed {
		if err := s.appendAndEmit(item); err != nil {
			return nil, err
		}
	}

	finalText := ""

	for {
		if err := ctx.Err(); err != nil {
			return s.finish(false, fmt.Sprintf("cancelled: %v", err), finalText)
		}

		if s.config.MaxTurns > 0 && s.turnCount >= s.config.MaxTurns {
			return s.finish(false, fmt.Sprintf("turn limit reached (%d)", s.config.MaxTurns), finalText)
		}

		resp, err := s.client.SendTurn(ctx, s.History(), turnCfg)
		s.turnCount++
		if err != nil {
			return s.finish(false, err.Error(), finalText)
		}

		s.usage.Add(resp.Usage)

		// Response items are appended and emitted in arrival order, never
		// buffered, to preserve temporal fidelity.
		for _, item := range resp.Items {
			if err := s.appendAndEmit(item); err != nil {
				return nil, err
			}
		}

		calls := llm.FunctionCalls(resp.Items)
		if len(calls) == 0 {
			finalText = llm.FinalAssistantText(resp.Items)
			return s.finish(true, "", finalText)
		}

		// All of the turn's calls must resolve before the next model turn.
		outputs := s.dispatcher.Dispatch(ctx, calls)
		if err := s.checkPairing(calls, outputs); err != nil {
			// An invariant violation is an engine defect: surface a failed
			// result so stream consumers see a terminal record, then abort.
			_, _ = s.finish(false, err.Error(), finalText)
			return nil, err
		}
		for _, item := range outputs {
			if err := s.appendAndEmit(item); err != nil {
				return nil, err
			}
		}
	}
}

// appendAndEmit folds an item into the history and emits its record.
func (s *Session) appendAndEmit(item llm.Item) error {
	s.history = append(s.history, item)
	record := RecordForItem(item)
	if record == nil {
		return &ProtocolError{Message: fmt.Sprintf("unknown item kind %q", item.Kind)}
	}
	return s.emitter.Emit(record)
}

// checkPairing verifies every output references its call, in call order.
func (s *Session) checkPairing(calls []llm.FunctionCallItem, outputs []llm.Item) error {
	if len(outputs) != len(calls) {
		return &ProtocolError{Message: fmt.Sprintf("%d calls produced %d outputs", len(calls), len(outputs))}
	}
	for i, out := range outputs {
		if out.Kind != llm.ItemFunctionCallOutput || out.FunctionCallOutput == nil {
			return &ProtocolError{Message: "dispatcher returned a non-output item"}
		}
		if out.FunctionCallOutput.CallID != calls[i].CallID {
			return &ProtocolError{Message: fmt.Sprintf(
				"output %d references call id %q, want %q", i, out.FunctionCallOutput.CallID, calls[i].CallID)}
		}
	}
	return nil
}

// finish builds the terminal result and emits its record.
func (s *Session) finish(success bool, errText, finalText string) (*Result, error) {
	subtype := "success"
	if !success {
		subtype = "error"
	}
	result := &Result{
		Success:   success,
		Subtype:   subtype,
		Error:     errText,
		Duration:  time.Since(s.startedAt),
		TurnCount: s.turnCount,
		Usage:     s.usage.Snapshot(),
		FinalText: finalText,
	}
	if err := s.emitter.Emit(result.Record()); err != nil {
		return nil, err
	}
	return result, nil
}
