package legacy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"market-cutover/pkg/model"
)

// FileProvider keeps the legacy dataset in a YAML document. It is meant for
// demos and local runs.
type FileProvider struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewFileProvider(path string, logger *zap.Logger) *FileProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileProvider{path: path, logger: logger}
}

func (p *FileProvider) LegacyDataset(_ context.Context) (model.LegacyDataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var data model.LegacyDataset
	b, err := os.ReadFile(p.path)
	if err != nil {
		return data, fmt.Errorf("read legacy dataset: %w", err)
	}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return data, fmt.Errorf("parse legacy dataset %s: %w", p.path, err)
	}
	return data, nil
}

// RestoreLegacyDataset rewrites the document atomically via a temp file.
func (p *FileProvider) RestoreLegacyDataset(_ context.Context, data model.LegacyDataset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode legacy dataset: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".legacy-*.yaml")
	if err != nil {
		return fmt.Errorf("restore legacy dataset: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("restore legacy dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("restore legacy dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("restore legacy dataset: %w", err)
	}
	p.logger.Info("legacy dataset restored to file",
		zap.String("path", p.path),
		zap.Int("providers", len(data.Providers)),
		zap.Int("services", len(data.Services)))
	return nil
}
