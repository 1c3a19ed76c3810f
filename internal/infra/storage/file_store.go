package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ローカルディスク保存。stored_pathはbaseDirからの相対パス。
type LocalFileStore struct {
	baseDir string
}

func NewLocalFileStore(baseDir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalFileStore{baseDir: baseDir}, nil
}

// 元のファイル名は使わない（パストラバーサル・衝突対策でuuidに振り直す）
func (s *LocalFileStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	stored := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.baseDir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return stored, nil
}

func (s *LocalFileStore) Open(ctx context.Context, storedPath string) ([]byte, error) {
	// 念のためbase外への参照を弾く
	clean := filepath.Base(storedPath)
	data, err := os.ReadFile(filepath.Join(s.baseDir, clean))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (s *LocalFileStore) Remove(ctx context.Context, storedPath string) error {
	clean := filepath.Base(storedPath)
	if err := os.Remove(filepath.Join(s.baseDir, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
