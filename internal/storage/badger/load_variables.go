package badger

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// VariableFile is one section of a variables file:
//
//	[eodhd_api_key]
//	value = "..."
//	description = "optional description"
type VariableFile struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// loadTally counts variable outcomes across files
type loadTally struct {
	loaded, skipped, failed int
}

// LoadVariablesFromFiles loads provider keys and other variables from
// {dir}/variables.toml and any .toml files under {dir}/variables/.
// Later files override earlier ones. Returns the number of variables stored.
func (m *Manager) LoadVariablesFromFiles(ctx context.Context, dirPath string) int {
	files := variableFiles(dirPath)
	if len(files) == 0 {
		m.logger.Debug().Str("dir", dirPath).Msg("No variable files found")
		return 0
	}

	var tally loadTally
	for _, file := range files {
		m.loadVariableFile(ctx, file, &tally)
	}

	m.logger.Debug().
		Int("files", len(files)).
		Int("loaded", tally.loaded).
		Int("skipped", tally.skipped).
		Int("errors", tally.failed).
		Msg("Variables loaded from files")

	return tally.loaded
}

// variableFiles lists variables.toml then variables/*.toml in name order
func variableFiles(dirPath string) []string {
	var files []string

	root := filepath.Join(dirPath, "variables.toml")
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		files = append(files, root)
	}

	entries, err := os.ReadDir(filepath.Join(dirPath, "variables"))
	if err != nil {
		return files
	}

	var extra []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".toml") {
			extra = append(extra, filepath.Join(dirPath, "variables", entry.Name()))
		}
	}
	sort.Strings(extra)

	return append(files, extra...)
}

func (m *Manager) loadVariableFile(ctx context.Context, filePath string, tally *loadTally) {
	fileName := filepath.Base(filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to read variable file")
		tally.failed++
		return
	}

	var variables map[string]VariableFile
	if err := toml.Unmarshal(content, &variables); err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to parse variable file")
		tally.failed++
		return
	}

	for key, variable := range variables {
		if strings.TrimSpace(variable.Value) == "" {
			m.logger.Debug().Str("file", fileName).Str("key", key).Msg("Skipping variable with empty value")
			tally.skipped++
			continue
		}

		description := variable.Description
		if description == "" {
			description = "Loaded from " + fileName
		}

		if _, err := m.kv.Upsert(ctx, key, variable.Value, description); err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("Failed to store variable")
			tally.failed++
			continue
		}
		tally.loaded++
	}
}
