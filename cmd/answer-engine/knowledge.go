// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/knowledge"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the local note index (index, search, export)",
	Long: `Knowledge manages the personal note index behind the knowledge
capability and the first fallback stage. Notes live as YAML files under
<knowledge-dir>/notes/; use subcommands to index them, search the index,
or export it.`,
}

// --- index subcommand ---

var knowledgeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest note files into the search index",
	Long: `Index reads note YAML files from <knowledge-dir>/notes/, ingests them
into a SQLite database with FTS5 indexing, and prints a summary.
Unchanged files are skipped on subsequent runs.`,
	RunE: runKnowledgeIndex,
}

func runKnowledgeIndex(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(knowledgeStoreConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d note file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search subcommand ---

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the note index",
	RunE:  runKnowledgeSearch,
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search query required")
	}
	query := strings.Join(args, " ")

	store, err := knowledge.NewStore(knowledgeStoreConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	notes, err := store.Retrieve(context.Background(), query, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	for i, n := range notes {
		fmt.Printf("%d. [%s] %s\n", i+1, n.Topic, n.Content)
	}
	fmt.Printf("\n%d notes\n", len(notes))
	return nil
}

// --- export subcommand ---

var knowledgeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full note index as YAML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := knowledge.NewStore(knowledgeStoreConfig(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		return store.Export(context.Background(), os.Stdout)
	},
}

// knowledgeStoreConfig merges the flag overrides over the loaded config.
func knowledgeStoreConfig(cmd *cobra.Command) types.KnowledgeConfig {
	cfg := loadConfig().Knowledge
	if dir, _ := cmd.Flags().GetString("knowledge-dir"); dir != "" {
		cfg.KnowledgeDir = dir
	}
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.MaxResults = maxResults
	}
	return cfg
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	knowledgeCmd.PersistentFlags().String("knowledge-dir", "", "base directory for notes (contains notes/, index/)")
	knowledgeCmd.PersistentFlags().Int("max-results", 0, "maximum number of search results (0 = config default)")

	// Search flags.
	knowledgeSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	knowledgeSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Wire subcommands.
	knowledgeCmd.AddCommand(knowledgeIndexCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	knowledgeCmd.AddCommand(knowledgeExportCmd)

	rootCmd.AddCommand(knowledgeCmd)
}
