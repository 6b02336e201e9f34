package main

import (
	"bufio"
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deskclerk/deskclerk/internal/assistant"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Start an interactive session with the Gemini-backed assistant. The
assistant reads and writes records through the same tools an MCP client
would use. Requires a Gemini API key (GEMINI_API_KEY or assistant.api_key).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		apiKey := a.config.GeminiAPIKey()
		if apiKey == "" {
			return fmt.Errorf("no Gemini API key: set GEMINI_API_KEY or assistant.api_key in deskclerk.yaml")
		}

		client, err := assistant.NewGemini(ctx, apiKey, assistant.WithModel(a.config.Assistant.Model))
		if err != nil {
			return err
		}

		asst := assistant.New(client, a.catalog, a.dispatcher,
			assistant.WithLogger(a.logger),
			assistant.WithHistory(a.history()),
			assistant.WithViewSource(a.tracker),
			assistant.WithMaxToolRounds(a.config.Assistant.MaxToolRounds),
			assistant.WithHistoryTurns(a.config.Assistant.HistoryTurns))

		sessionID := uuid.NewString()
		promptColor := color.New(color.FgYellow, color.Bold)
		errorColor := color.New(color.FgRed)

		fmt.Fprintln(cmd.OutOrStdout(), "deskclerk chat - ask about your records, ctrl-d to quit")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			promptColor.Fprint(cmd.OutOrStdout(), "you> ")
			if !scanner.Scan() {
				fmt.Fprintln(cmd.OutOrStdout())
				return scanner.Err()
			}

			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}
			if question == "exit" || question == "quit" {
				return nil
			}

			answer, err := asst.Ask(ctx, sessionID, question)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				errorColor.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
		}
	},
}
