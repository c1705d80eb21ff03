// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kgriffin/doctrine-engine/internal/enhance"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [file]",
	Short: "Rewrite military text with AI assistance",
	Long: `Enhance sends the given text (from a file argument, or stdin when no
argument is given) to the generative backend for rewriting. The --type
flag selects the focus: general, conciseness, clarity, or impact.

When the backend is unavailable the original text is returned unchanged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnhance,
}

func runEnhance(cmd *cobra.Command, args []string) error {
	text, err := readInputText(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("input text cannot be empty")
	}

	typ, _ := cmd.Flags().GetString("type")

	gen, _ := newCapabilities()
	resp := enhance.Text(context.Background(), gen, text, enhance.Type(typ))
	fmt.Println(resp.EnhancedText)
	return nil
}

func init() {
	enhanceCmd.Flags().String("type", string(enhance.General), "enhancement focus: general, conciseness, clarity, or impact")

	rootCmd.AddCommand(enhanceCmd)
}
