package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acaihq/acai/agent"
	"github.com/acaihq/acai/llm"
)

const pipeSystemPrompt = "You are a helpful coding assistant. Provide the answer and only the answer. The answer should be in plain text without Markdown formatting."

var pipeCmd = &cobra.Command{
	Use:   "pipe [prompt...]",
	Short: "Answer a prompt using piped stdin as context",
	Long: `Reads stdin as context, sends it with the prompt, and prints the
answer. No tools are enabled; the model answers in a single turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		context := stdinContext()
		if len(args) == 0 && context == "" {
			return errors.New("no prompt given and nothing piped on stdin")
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		session, err := agent.NewSession(client, agent.NopEmitter{}, agent.SessionConfig{
			MaxTurns: 1,
			Turn:     turnConfig(),
		})
		if err != nil {
			return err
		}

		seed := []llm.Item{llm.NewMessageItem(llm.RoleSystem, pipeSystemPrompt)}
		if context != "" {
			seed = append(seed, llm.NewMessageItem(llm.RoleUser, context))
		}
		if len(args) > 0 {
			seed = append(seed, llm.NewMessageItem(llm.RoleUser, strings.Join(args, " ")))
		}

		result, err := session.Run(cmd.Context(), seed)
		if err != nil {
			return err
		}

		// History is saved regardless of outcome, as in instruct.
		if _, err := data.SaveHistory(session.History()); err != nil {
			slog.Warn("could not save history", "error", err)
		}

		if !result.Success {
			return errors.New(result.Error)
		}

		fmt.Println(result.FinalText)
		return nil
	},
}
