// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/clarify"
	"github.com/pdiddy/answer-engine/internal/dispatch"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Long: `Ask routes a single question through the engine and prints the answer
envelope. When clarify.session_dir is configured, pending clarification
state persists across invocations, so a short follow-up like "天气" can
resolve a clarification prompt from the previous run of the same
--session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cmd)

	store, closeStore, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, cleanup, err := buildEngine(cfg, store, log)
	if err != nil {
		return err
	}
	defer cleanup()

	session, _ := cmd.Flags().GetString("session")
	mode, _ := cmd.Flags().GetString("mode")
	debug, _ := cmd.Flags().GetBool("debug")

	env := engine.Answer(cmd.Context(), strings.Join(args, " "), dispatch.BuildOptions{
		SessionID: session,
		Mode:      mode,
		Debug:     debug,
	})

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printEnvelope(env, jsonOutput)
}

// openSessionStore picks the clarification store: SQLite when a session
// directory is configured, in-memory otherwise.
func openSessionStore(cfg types.Config) (clarify.Store, func(), error) {
	if cfg.Clarify.SessionDir == "" {
		return clarify.NewMemoryStore(), func() {}, nil
	}
	s, err := clarify.OpenSQLiteStore(cfg.Clarify.SessionDir)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

func printEnvelope(env types.Envelope, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}

	fmt.Println(env.FinalText)

	if len(env.Sources) > 0 {
		fmt.Println()
		for _, s := range env.Sources {
			line := "来源: " + s.Title
			if s.URL != "" {
				line += " " + s.URL
			}
			fmt.Println(line)
		}
	}
	return nil
}

func init() {
	askCmd.Flags().String("session", "local", "session ID for clarification follow-ups")
	askCmd.Flags().String("mode", "", "request mode (default: local_first)")
	askCmd.Flags().Bool("debug", false, "include candidate diagnostics in envelope meta")
	askCmd.Flags().Bool("json", false, "output the full envelope as JSON")

	rootCmd.AddCommand(askCmd)
}
