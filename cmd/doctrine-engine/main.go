// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doctrine-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kgriffin/doctrine-engine/internal/genai"
	"github.com/kgriffin/doctrine-engine/internal/secrets"
	"github.com/kgriffin/doctrine-engine/internal/store"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the doctrine-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "doctrine-engine",
	Short: "Tactical task knowledge base and order analysis",
	Long: `doctrine-engine builds a knowledge base of tactical tasks from
field-manual page text and re-identifies those tasks inside operation
orders, enriching each mention with its canonical definition.

Each stage is a subcommand: ingest extracts tasks from manual pages,
analyze recognizes tasks in arbitrary text, tasks queries the knowledge
base, orders manages analyzed order documents, and enhance rewrites
order text with AI assistance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doctrine-engine.yaml or ~/.config/doctrine-engine/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for engine state (default: data)")

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doctrine-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doctrine-engine"))
		}
	}

	viper.SetEnvPrefix("DOCTRINE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// aiConfig assembles AI settings from config and secrets.
func aiConfig() types.AIConfig {
	return types.AIConfig{
		Model:      viper.GetString("ai.model"),
		EmbedModel: viper.GetString("ai.embed_model"),
		APIKey:     secretDefault("gemini-api-key", viper.GetString("ai.api_key")),
	}
}

// newCapabilities builds the generative and embedding handles. A
// missing API key yields the explicit Unavailable implementations;
// downstream components degrade per their contracts.
func newCapabilities() (genai.Generator, genai.Embedder) {
	cfg := aiConfig()
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "warning: no Gemini API key configured; AI capabilities unavailable")
		return genai.UnavailableGenerator{}, genai.UnavailableEmbedder{}
	}
	client := genai.NewGeminiClient(cfg)
	return client, client
}

// openStore opens the knowledge store from flags and config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("store.data_dir")
	}
	if dataDir == "" {
		dataDir = "data"
	}
	return store.NewStore(types.StoreConfig{
		DataDir:    dataDir,
		MaxResults: viper.GetInt("store.max_results"),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
