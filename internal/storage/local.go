package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/calgary-pulse/pulseqa/internal/domain"
)

// LocalProfileSource reads community profile documents from a directory of
// <slug>.json files. Files starting with an underscore are skipped.
type LocalProfileSource struct {
	dir string
}

// NewLocalProfileSource creates a new LocalProfileSource instance
func NewLocalProfileSource(dir string) *LocalProfileSource {
	return &LocalProfileSource{dir: dir}
}

// ListSlugs lists the community slugs in the directory, sorted.
func (s *LocalProfileSource) ListSlugs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var slugs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "_") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(slugs)
	return slugs, nil
}

// GetProfile reads one community's profile document by slug.
func (s *LocalProfileSource) GetProfile(ctx context.Context, slug string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, slug+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return data, nil
}
