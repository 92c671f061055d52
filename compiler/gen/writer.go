package gen

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WriteStats reports what a WriteResult call put on disk.
type WriteStats struct {
	Files int
	Bytes int64
}

// WriteResult writes every artifact of the result into dir, creating
// it if needed. Artifacts are independent files and are written in
// parallel; the first failure cancels the remaining writes.
func WriteResult(ctx context.Context, dir string, res *Result) (*WriteStats, error) {
	if dir == "" {
		return nil, NewConfigError("Target", nil, "target directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewGenerationError("emit", "", "creating target directory", err)
	}
	var files, bytes atomic.Int64
	grp, ctx := errgroup.WithContext(ctx)
	for _, a := range res.Artifacts {
		a := a
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, a.Name)
			if err := os.WriteFile(path, a.Content, 0o644); err != nil {
				return NewGenerationError("emit", a.Name, "writing artifact", err)
			}
			files.Add(1)
			bytes.Add(int64(len(a.Content)))
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return &WriteStats{Files: int(files.Load()), Bytes: bytes.Load()}, nil
}
