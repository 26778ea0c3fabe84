// Package newsfs persists daily news documents as JSON files under
//
//	{root}/macro_news/{date}/macro_news.json
//	{root}/stock_news/{SYMBOL}/{date}/stock_news.json
//	{root}/stock_news/{SYMBOL}/{date}/overview.json
package newsfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

const (
	macroDir     = "macro_news"
	stockDir     = "stock_news"
	macroFile    = "macro_news.json"
	stockFile    = "stock_news.json"
	overviewFile = "overview.json"
)

// Store is a file-backed NewsStore
type Store struct {
	root   string
	logger arbor.ILogger
}

var _ interfaces.NewsStore = (*Store)(nil)

// NewStore creates the store rooted at root, usually {data_dir}/news
func NewStore(root string, logger arbor.ILogger) (*Store, error) {
	for _, sub := range []string{macroDir, stockDir} {
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", root).Msg("News store opened")
	return &Store{root: root, logger: logger}, nil
}

// Root returns the base directory
func (s *Store) Root() string {
	return s.root
}

// sanitize makes a path segment safe: separators and ".." become "_"
func sanitize(segment string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(strings.TrimSpace(segment))
}

func (s *Store) macroPath(date string) string {
	return filepath.Join(s.root, macroDir, sanitize(date), macroFile)
}

func (s *Store) stockPath(symbol, date, file string) string {
	return filepath.Join(s.root, stockDir, sanitize(strings.ToUpper(symbol)), sanitize(date), file)
}

func (s *Store) LoadMacro(ctx context.Context, date string) (*models.NewsDocument, error) {
	return s.read(s.macroPath(date))
}

func (s *Store) SaveMacro(ctx context.Context, doc *models.NewsDocument) error {
	return s.write(s.macroPath(doc.Date), doc)
}

func (s *Store) LoadStock(ctx context.Context, symbol, date string) (*models.NewsDocument, error) {
	return s.read(s.stockPath(symbol, date, stockFile))
}

func (s *Store) SaveStock(ctx context.Context, doc *models.NewsDocument) error {
	if doc.Symbol == "" {
		return errors.New("stock news document has no symbol")
	}
	return s.write(s.stockPath(doc.Symbol, doc.Date, stockFile), doc)
}

func (s *Store) LoadOverview(ctx context.Context, symbol, date string) (*models.NewsDocument, error) {
	return s.read(s.stockPath(symbol, date, overviewFile))
}

func (s *Store) SaveOverview(ctx context.Context, doc *models.NewsDocument) error {
	if doc.Symbol == "" {
		return errors.New("overview document has no symbol")
	}
	return s.write(s.stockPath(doc.Symbol, doc.Date, overviewFile), doc)
}

// read returns interfaces.ErrDocumentNotFound for a missing or empty file
func (s *Store) read(path string) (*models.NewsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, interfaces.ErrDocumentNotFound
	}

	var doc models.NewsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}

// write marshals to indented JSON and replaces the file atomically
func (s *Store) write(path string, doc *models.NewsDocument) error {
	if doc.Date == "" {
		return errors.New("news document has no date")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("articles", len(doc.Articles)).Msg("News document written")
	return nil
}
