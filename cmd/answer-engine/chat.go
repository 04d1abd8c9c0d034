// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/clarify"
	"github.com/pdiddy/answer-engine/internal/dispatch"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Chat runs a read-answer loop on stdin. Each session gets a fresh ID and
an in-memory clarification store, so clarification follow-ups work within
the session and vanish when it ends. Type "exit" or press Ctrl-D to
quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cmd)

	engine, cleanup, err := buildEngine(cfg, clarify.NewMemoryStore(), log)
	if err != nil {
		return err
	}
	defer cleanup()

	debug, _ := cmd.Flags().GetBool("debug")
	session := "chat-" + uuid.NewString()[:8]

	fmt.Println("answer-engine 对话模式，输入 exit 退出。")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "退出" {
			break
		}

		env := engine.Answer(cmd.Context(), line, dispatch.BuildOptions{
			SessionID: session,
			Debug:     debug,
		})
		fmt.Println(env.FinalText)
		fmt.Println()
	}
	fmt.Println("再见。")
	return scanner.Err()
}

func init() {
	chatCmd.Flags().Bool("debug", false, "include candidate diagnostics in envelope meta")

	rootCmd.AddCommand(chatCmd)
}
