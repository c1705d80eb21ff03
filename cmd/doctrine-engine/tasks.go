// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kgriffin/doctrine-engine/internal/genai"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Query the tactical task knowledge base",
}

// --- list subcommand ---

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored task names",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		names, err := st.ListNames(context.Background())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Fprintf(os.Stderr, "\n%d tasks\n", len(names))
		return nil
	},
}

// --- show subcommand ---

var tasksShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a stored task's definition and metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetByName(context.Background(), args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("task %q not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Details())
	},
}

// --- similar subcommand ---

var tasksSimilarCmd = &cobra.Command{
	Use:   "similar [query text]",
	Short: "Find tasks whose definitions are semantically closest to the query",
	Long: `Similar embeds the query text and ranks stored tasks by ascending
cosine distance to their definition embeddings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTasksSimilar,
}

func runTasksSimilar(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("query text cannot be empty")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	_, emb := newCapabilities()
	embedding := genai.EmbedFixed(context.Background(), emb, query, genai.TaskTypeQuery)

	k, _ := cmd.Flags().GetInt("limit")
	results, err := st.Nearest(context.Background(), embedding, k)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-25s  %-8s  %s\n", "Rank", "Name", "Page", "Definition")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for i, r := range results {
		def := r.Definition
		if len(def) > 50 {
			def = def[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-25s  %-8s  %s\n", i+1, r.Name, r.PageNumber, def)
	}
	return nil
}

// --- export subcommand ---

var tasksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to YAML",
	Long:  `Export writes all task records to data/index/export.yaml, embeddings omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		return st.ExportYAML(context.Background())
	},
}

func init() {
	tasksSimilarCmd.Flags().Int("limit", 0, "maximum number of results (default: store setting)")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
	tasksCmd.AddCommand(tasksSimilarCmd)
	tasksCmd.AddCommand(tasksExportCmd)
	rootCmd.AddCommand(tasksCmd)
}
