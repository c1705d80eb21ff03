// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgriffin/doctrine-engine/internal/analyze"
	"github.com/kgriffin/doctrine-engine/internal/orders"
	"github.com/kgriffin/doctrine-engine/internal/store"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage analyzed order documents",
	Long: `Orders stores operation order documents and keeps each document's
tactical analysis up to date: creating an order or updating its content
queues a background analysis run that re-identifies known tasks in the
content and persists the annotation list onto the document.`,
}

// newAnalysisWorker wires the recognition engine into a background
// worker over the given store.
func newAnalysisWorker(st *store.Store) *orders.Worker {
	gen, _ := newCapabilities()
	engine := analyze.NewEngine(gen, st, types.AnalysisConfig{
		AIConfig:   aiConfig(),
		Vocabulary: types.VocabularyMode(viper.GetString("analysis.vocabulary")),
	})
	return orders.NewWorker(st, engine)
}

// --- create subcommand ---

var ordersCreateCmd = &cobra.Command{
	Use:   "create [content file]",
	Short: "Create an order document and analyze its content",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOrdersCreate,
}

func runOrdersCreate(cmd *cobra.Command, args []string) error {
	content, err := readInputText(args)
	if err != nil {
		return err
	}
	title, _ := cmd.Flags().GetString("title")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.CreateOrder(context.Background(), title, content)
	if err != nil {
		return err
	}
	fmt.Printf("created order %d\n", id)

	w := newAnalysisWorker(st)
	w.Enqueue(id)
	w.Close()
	return nil
}

// --- update subcommand ---

var ordersUpdateCmd = &cobra.Command{
	Use:   "update [id] [content file]",
	Short: "Replace an order's content and re-analyze it",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runOrdersUpdate,
}

func runOrdersUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q", args[0])
	}
	content, err := readInputText(args[1:])
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ok, err := st.UpdateOrderContent(context.Background(), id, content)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("order %d not found", id)
	}

	w := newAnalysisWorker(st)
	w.Enqueue(id)
	w.Close()
	return nil
}

// --- show subcommand ---

var ordersShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an order document with its analysis results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.GetOrder(context.Background(), id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("order %d not found", id)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func init() {
	ordersCreateCmd.Flags().String("title", "", "order title")

	ordersCmd.AddCommand(ordersCreateCmd)
	ordersCmd.AddCommand(ordersUpdateCmd)
	ordersCmd.AddCommand(ordersShowCmd)
	rootCmd.AddCommand(ordersCmd)
}
