package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileReportRepo keeps one JSON file per report under dir.
type FileReportRepo struct {
	dir string
	mu  sync.RWMutex
}

var _ ReportRepository = (*FileReportRepo)(nil)

// NewFileReportRepo creates dir if needed. An empty dir defaults to
// .cache/reports.
func NewFileReportRepo(dir string) (*FileReportRepo, error) {
	if dir == "" {
		dir = filepath.Join(".cache", "reports")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	return &FileReportRepo{dir: dir}, nil
}

func (r *FileReportRepo) Save(ctx context.Context, rec *Record) error {
	prepare(rec)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// write then rename so readers never see a partial file
	tmp := r.path(rec.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to save report file: %w", err)
	}
	if err := os.Rename(tmp, r.path(rec.ID)); err != nil {
		return fmt.Errorf("failed to save report file: %w", err)
	}
	return nil
}

func (r *FileReportRepo) Get(ctx context.Context, id string) (*Record, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.load(r.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *FileReportRepo) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report dir: %w", err)
	}

	var out []Record
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		rec, err := r.load(filepath.Join(r.dir, f.Name()))
		if err != nil {
			continue
		}
		rec.Report = nil
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FileReportRepo) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

func (r *FileReportRepo) load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}
