package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"sweep_bot/internal/models"
)

// FileStore — json-файл на инстанс в одном каталоге. Дефолтный бэкенд,
// когда DSN постгреса не задан.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key models.InstanceKey) string {
	name := fmt.Sprintf("%s_%s.json",
		strings.ToLower(key.Profile), strings.ToUpper(key.Symbol))
	return filepath.Join(f.dir, name)
}

func (f *FileStore) Load(_ context.Context, key models.InstanceKey) (*InstanceState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read state %s", key)
	}
	var st InstanceState
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, errors.Wrapf(err, "decode state %s", key)
	}
	return &st, nil
}

func (f *FileStore) Save(_ context.Context, key models.InstanceKey, st *InstanceState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := sonic.Marshal(st)
	if err != nil {
		return errors.Wrapf(err, "encode state %s", key)
	}
	// запись через tmp + rename, чтобы не оставить битый файл при падении
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrapf(err, "write state %s", key)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return errors.Wrapf(err, "rename state %s", key)
	}
	return nil
}
