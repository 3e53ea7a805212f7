package fsxlocal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/fsx"
)

// LocalFileSystem implements fsx.FileReader over a directory on disk.
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem opens basePath read-only. A missing directory is not
// an error: the template set is simply empty until it exists.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return &LocalFileSystem{basePath: absPath}, nil
}

func (fs *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := fs.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", fsx.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (fs *LocalFileSystem) List(ctx context.Context, path string) ([]fsx.FileInfo, error) {
	fullPath, err := fs.fullPath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", fsx.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, fsx.FileInfo{Name: entry.Name(), IsDir: entry.IsDir()})
	}
	return infos, nil
}

// BasePath returns the absolute root directory.
func (fs *LocalFileSystem) BasePath() string {
	return fs.basePath
}

// fullPath resolves path under basePath and refuses anything that escapes it.
func (fs *LocalFileSystem) fullPath(path string) (string, error) {
	full := filepath.Join(fs.basePath, path)
	if full != fs.basePath && !strings.HasPrefix(full, fs.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", path)
	}
	return full, nil
}
