package collaborators

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// LocalRepository is an in-memory RepositoryFetcher backed by a flat
// path->content map, suitable for tests and single-checkout
// deployments that mount a working tree directly into the process.
type LocalRepository struct {
	files map[string][]byte
}

func NewLocalRepository(files map[string][]byte) *LocalRepository {
	return &LocalRepository{files: files}
}

func (r *LocalRepository) Tree(ctx context.Context, path, ref string) ([]RepositoryFile, error) {
	var out []RepositoryFile
	for p := range r.files {
		if path == "" || strings.HasPrefix(p, path) {
			out = append(out, RepositoryFile{Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *LocalRepository) File(ctx context.Context, path string) ([]byte, error) {
	content, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("collaborators: file not found: %s", path)
	}
	return content, nil
}
