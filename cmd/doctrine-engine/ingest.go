// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgriffin/doctrine-engine/internal/extract"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract tactical tasks from field-manual pages into the knowledge base",
	Long: `Ingest reads page text files (.txt) from the pages directory, extracts
the tactical tasks on each page via the generative backend, embeds each
definition, and upserts the results into the knowledge base. A page
file pages/B-11.txt may have a sibling directory pages/B-11.images/
holding the page's embedded images; the first image is associated with
tasks that reference a figure.

Failures on one page never abort the remaining pages.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	pagesDir, _ := cmd.Flags().GetString("pages-dir")
	if pagesDir == "" {
		pagesDir = viper.GetString("ingest.pages_dir")
	}
	if pagesDir == "" {
		return fmt.Errorf("pages directory required: use --pages-dir or set ingest.pages_dir")
	}
	sourceRef, _ := cmd.Flags().GetString("source-reference")
	if sourceRef == "" {
		sourceRef = viper.GetString("ingest.source_reference")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, emb := newCapabilities()
	engine, err := extract.NewEngine(gen, emb, st, types.IngestConfig{
		AIConfig:        aiConfig(),
		PagesDir:        pagesDir,
		SourceReference: sourceRef,
	})
	if err != nil {
		return err
	}

	summary, err := engine.IngestAll(context.Background(), pagesDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d task(s) failed to store", summary.Failed)
	}
	return nil
}

func init() {
	ingestCmd.Flags().String("pages-dir", "", "directory of page text files to ingest")
	ingestCmd.Flags().String("source-reference", "", "source document recorded on extracted tasks (default: FM 3-90)")

	rootCmd.AddCommand(ingestCmd)
}
