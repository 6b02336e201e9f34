package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a deskclerk.yaml in the current directory",
	Long:  "Interactively scaffold a deskclerk.yaml configuration file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		const configFile = "deskclerk.yaml"

		if _, err := os.Stat(configFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
		}

		driver := "sqlite3"
		if err := survey.AskOne(&survey.Select{
			Message: "Database driver:",
			Options: []string{"sqlite3", "postgres"},
			Default: "sqlite3",
		}, &driver); err != nil {
			return err
		}

		defaultURL := "deskclerk.db"
		if driver == "postgres" {
			defaultURL = "postgres://localhost:5432/deskclerk?sslmode=disable"
		}
		databaseURL := defaultURL
		if err := survey.AskOne(&survey.Input{
			Message: "Database URL:",
			Default: defaultURL,
		}, &databaseURL, survey.WithValidator(survey.Required)); err != nil {
			return err
		}

		apiKey := ""
		if err := survey.AskOne(&survey.Password{
			Message: "Gemini API key (empty to use GEMINI_API_KEY):",
		}, &apiKey); err != nil {
			return err
		}

		historyBackend := "memory"
		if err := survey.AskOne(&survey.Select{
			Message: "Conversation history backend:",
			Options: []string{"memory", "redis"},
			Default: "memory",
		}, &historyBackend); err != nil {
			return err
		}

		content := fmt.Sprintf(`database:
  driver: %s
  url: %s

server:
  host: localhost
  port: 8379

assistant:
  model: ""
`, driver, databaseURL)

		if apiKey != "" {
			content += fmt.Sprintf("  api_key: %s\n", apiKey)
		}
		content += fmt.Sprintf(`
history:
  backend: %s

log:
  level: info
`, historyBackend)

		if err := os.WriteFile(configFile, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", configFile, err)
		}

		successColor := color.New(color.FgGreen, color.Bold)
		infoColor := color.New(color.FgCyan)
		successColor.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", configFile)
		infoColor.Fprintln(cmd.OutOrStdout(), "Next: deskclerk migrate, then deskclerk serve or deskclerk chat")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing deskclerk.yaml")
}
