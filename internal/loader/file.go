package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

func loadFile(ctx context.Context, path string, limit int64) ([]byte, error) {
	if path == "" {
		return nil, errors.New("file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.Size() > limit {
			return nil, ErrTooLarge
		}
	}
	return os.ReadFile(abs)
}
