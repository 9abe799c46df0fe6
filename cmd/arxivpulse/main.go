// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxivpulse CLI: the API server
// and command-line access to discovery, chat, summaries and metrics.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/svskaushik/ArxivPulse/internal/secrets"
	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per API key.
const secretsDir = ".secrets/"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

var rootCmd = &cobra.Command{
	Use:   "arxivpulse",
	Short: "Discover arXiv papers, chat with them and track their impact",
	Long: `arxivpulse serves the paper discovery API and exposes the same
operations on the command line: discover lists papers from arXiv, chat asks
questions about a paper's PDF, summarize condenses text, and metrics looks
up citation counts and attention scores.

Configuration comes from arxivpulse.yaml, ARXIVPULSE_* environment
variables, a .env file and API key files in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir, nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxivpulse.yaml or ~/.config/arxivpulse/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxivpulse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxivpulse"))
		}
	}

	viper.SetEnvPrefix("ARXIVPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so AutomaticEnv can
// override keys that no config file mentions.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.stream_timeout", d.Server.StreamTimeout)

	setHTTPDefaults(v, "discovery", d.Discovery.HTTPConfig)
	v.SetDefault("discovery.base_url", d.Discovery.BaseURL)
	v.SetDefault("discovery.page_size", d.Discovery.PageSize)
	v.SetDefault("discovery.default_category", d.Discovery.DefaultCategory)
	v.SetDefault("discovery.request_interval", d.Discovery.RequestInterval)
	v.SetDefault("discovery.max_retries", d.Discovery.MaxRetries)

	setHTTPDefaults(v, "enrichment", d.Enrichment.HTTPConfig)
	v.SetDefault("enrichment.semantic_scholar_api_key", d.Enrichment.SemanticScholarAPIKey)
	v.SetDefault("enrichment.altmetric_api_key", d.Enrichment.AltmetricAPIKey)
	v.SetDefault("enrichment.related_limit", d.Enrichment.RelatedLimit)
	v.SetDefault("enrichment.concurrency", d.Enrichment.Concurrency)
	v.SetDefault("enrichment.cache_ttl", d.Enrichment.CacheTTL)
	v.SetDefault("enrichment.cache_size", d.Enrichment.CacheSize)
	v.SetDefault("enrichment.cache_path", d.Enrichment.CachePath)

	setHTTPDefaults(v, "genai", d.GenAI.HTTPConfig)
	v.SetDefault("genai.base_url", d.GenAI.BaseURL)
	v.SetDefault("genai.model", d.GenAI.Model)
	v.SetDefault("genai.api_key", d.GenAI.APIKey)
	v.SetDefault("genai.max_prompt_chars", d.GenAI.MaxPromptChars)

	setHTTPDefaults(v, "summarizer", d.Summarizer.HTTPConfig)
	v.SetDefault("summarizer.base_url", d.Summarizer.BaseURL)
	v.SetDefault("summarizer.flow_id", d.Summarizer.FlowID)
	v.SetDefault("summarizer.api_key", d.Summarizer.APIKey)

	setHTTPDefaults(v, "pdf", d.PDF.HTTPConfig)
	v.SetDefault("pdf.max_bytes", d.PDF.MaxBytes)
	v.SetDefault("pdf.cache_size", d.PDF.CacheSize)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

func setHTTPDefaults(v *viper.Viper, section string, h types.HTTPConfig) {
	v.SetDefault(section+".timeout", h.Timeout)
	v.SetDefault(section+".user_agent", h.UserAgent)
}

// loadConfig decodes v over the defaults and fills empty API keys from
// the secrets directory.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	s.Apply(&cfg)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
