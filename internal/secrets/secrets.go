// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/svskaushik/ArxivPulse/pkg/types"
)

// Key files read by Apply.
const (
	GoogleAPIKey          = "google-api-key"
	LangflowAPIKey        = "langflow-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	AltmetricAPIKey       = "altmetric-api-key"
)

// Set maps key file names to their values.
type Set map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Set. Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Keys returns the loaded key names, sorted.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Or returns current when it is set, otherwise the secret named key.
func (s Set) Or(key, current string) string {
	if current != "" {
		return current
	}
	return s[key]
}

// Apply fills API keys that cfg leaves empty from s. Keys set through
// configuration or the environment win.
func (s Set) Apply(cfg *types.Config) {
	cfg.GenAI.APIKey = s.Or(GoogleAPIKey, cfg.GenAI.APIKey)
	cfg.Summarizer.APIKey = s.Or(LangflowAPIKey, cfg.Summarizer.APIKey)
	cfg.Enrichment.SemanticScholarAPIKey = s.Or(SemanticScholarAPIKey, cfg.Enrichment.SemanticScholarAPIKey)
	cfg.Enrichment.AltmetricAPIKey = s.Or(AltmetricAPIKey, cfg.Enrichment.AltmetricAPIKey)
}
