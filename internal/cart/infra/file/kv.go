package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

const fileExt = ".json"

// KV stores each key as one file in a directory. Writes go to a temp file
// that is renamed over the target, so readers never see a partial snapshot.
type KV struct {
	dir string
}

func NewKV(dir string) (*KV, error) {
	if dir == "" {
		return nil, errors.New("file kv: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file kv: create dir %s: %w", dir, err)
	}
	return &KV{dir: dir}, nil
}

func (k *KV) Dir() string {
	return k.dir
}

// Path returns the file that backs key.
func (k *KV) Path(key string) string {
	return filepath.Join(k.dir, url.QueryEscape(key)+fileExt)
}

func (k *KV) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(k.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return data, nil
}

func (k *KV) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(k.dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync key %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	if err := os.Rename(tmpName, k.Path(key)); err != nil {
		return fmt.Errorf("failed to commit key %s: %w", key, err)
	}
	return nil
}
