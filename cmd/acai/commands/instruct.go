package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/acaihq/acai/agent"
	"github.com/acaihq/acai/llm"
)

const instructSystemPrompt = "You are a helpful AI CLI assistant that runs on the user's computer and follows their instructions."

var (
	flagPrompt     string
	flagStreamJSON bool
	flagTools      []string
	flagMaxTurns   int
)

var instructCmd = &cobra.Command{
	Use:   "instruct [prompt...]",
	Short: "Run an instruction through the agent loop",
	Long: `Runs a single instruction through the agent loop. The model may
invoke enabled tools (shell by default); the loop continues until the model
answers without requesting a tool.

With --stream-json, every event of the session is written to stdout as one
JSON object per line, ending with a result record. Without it, only the
final assistant message is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := flagPrompt
		if prompt == "" {
			prompt = strings.Join(args, " ")
		}

		context := ""
		if flagPrompt != "" || len(args) > 0 {
			context = stdinContext()
		} else {
			prompt = stdinContext()
		}
		if prompt == "" {
			return errors.New("no prompt given: use -p, positional arguments, or pipe stdin")
		}

		content := prompt
		if context != "" {
			content = prompt + "\n\n" + context
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		streaming := flagStreamJSON || cfg.StreamJSON
		var emitter agent.Emitter = agent.NopEmitter{}
		if streaming {
			emitter = agent.NewStreamEmitter(os.Stdout)
		}

		maxTurns := cfg.MaxTurns
		if cmd.Flags().Changed("max-turns") {
			maxTurns = flagMaxTurns
		}
		tools := cfg.Tools
		if cmd.Flags().Changed("tools") {
			tools = flagTools
		}

		session, err := agent.NewSession(client, emitter, agent.SessionConfig{
			Tools:       tools,
			MaxTurns:    maxTurns,
			ToolTimeout: time.Duration(cfg.ToolTimeout) * time.Second,
			Turn:        turnConfig(),
		})
		if err != nil {
			return err
		}

		result, err := session.Run(cmd.Context(), []llm.Item{
			llm.NewMessageItem(llm.RoleSystem, instructSystemPrompt),
			llm.NewMessageItem(llm.RoleUser, content),
		})
		if err != nil {
			return err
		}

		if path, err := data.SaveHistory(session.History()); err != nil {
			slog.Warn("could not save history", "error", err)
		} else {
			slog.Debug("history saved", "path", path)
		}

		if !streaming {
			if result.Success {
				fmt.Println(result.FinalText)
			} else {
				return errors.New(result.Error)
			}
		} else if !result.Success {
			// The stream already carries the failed result record; the exit
			// code is the only extra signal.
			return errSilentFailure
		}
		return nil
	},
}

// errSilentFailure signals a non-zero exit without duplicating the error
// text that the result record already carries.
var errSilentFailure = errors.New("session failed")

func init() {
	instructCmd.Flags().StringVarP(&flagPrompt, "prompt", "p", "", "the instruction prompt")
	instructCmd.Flags().BoolVar(&flagStreamJSON, "stream-json", false, "stream each event as a JSON line")
	instructCmd.Flags().StringSliceVar(&flagTools, "tools", nil, "tools the model may use")
	instructCmd.Flags().IntVar(&flagMaxTurns, "max-turns", 0, "maximum model round-trips (0 = config default)")
}

// newClient builds the gollm-backed model client from configuration.
func newClient() (llm.Client, error) {
	return llm.NewGollmClient(cfg.Provider, "",
		llm.WithModel(cfg.Model),
		llm.WithRetryPolicy(retryPolicy()),
	)
}

func retryPolicy() llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		slog.Warn("retrying model request", "attempt", attempt, "delay", delay, "error", err)
	}
	return policy
}

// turnConfig maps configuration onto per-turn model parameters. Zero values
// are left unset so provider defaults apply.
func turnConfig() llm.TurnConfig {
	tc := llm.TurnConfig{Model: cfg.Model}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		tc.Temperature = &t
	}
	if cfg.TopP > 0 {
		p := cfg.TopP
		tc.TopP = &p
	}
	if cfg.MaxTokens > 0 {
		m := cfg.MaxTokens
		tc.MaxTokens = &m
	}
	return tc
}
