// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgriffin/doctrine-engine/internal/analyze"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Recognize known tactical tasks in free text",
	Long: `Analyze sends the given text (from a file argument, or stdin when no
argument is given) to the generative backend for named-entity
recognition, resolves each recognized task against the knowledge base,
and prints the enriched mention list as JSON.

Tasks the backend reports but the knowledge base does not contain are
dropped. Backend failures degrade to an empty list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readInputText(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("input text cannot be empty")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, _ := newCapabilities()
	engine := analyze.NewEngine(gen, st, types.AnalysisConfig{
		AIConfig:   aiConfig(),
		Vocabulary: types.VocabularyMode(viper.GetString("analysis.vocabulary")),
	})

	mentions := engine.Text(context.Background(), text)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(mentions)
}

// readInputText reads the analysis input from the file argument or stdin.
func readInputText(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
