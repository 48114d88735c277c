// Package filestore persists store snapshots in a single JSON document on local disk.
package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

type Backend struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	logger    *logging.Logger
	now       func() time.Time

	mu     sync.Mutex
	closed bool
}

var _ localstore.Backend = (*Backend)(nil)

func NewBackend(path string, logger *logging.Logger) (*Backend, error) {
	if path == "" {
		return nil, errors.New("store file path is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}

	return &Backend{
		path:      path,
		dir:       dir,
		base:      filepath.Base(path),
		validator: validator.New(),
		logger:    logger.Named("filestore"),
		now:       time.Now,
	}, nil
}

// Load reads the persisted snapshot. A missing file yields an empty snapshot.
func (b *Backend) Load(ctx context.Context) (localstore.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	payload, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		b.logger.InfoContext(ctx, "no persisted snapshot, starting empty", "path", b.path)
		return localstore.Snapshot{}, nil
	}
	if err != nil {
		return localstore.Snapshot{}, errors.Wrap(err, "read store file")
	}

	var doc document
	if err := sonic.Unmarshal(payload, &doc); err != nil {
		return localstore.Snapshot{}, errors.Wrap(err, "decode store file")
	}
	if err := b.validator.Struct(&doc); err != nil {
		return localstore.Snapshot{}, errors.Wrap(err, "validate store file")
	}

	snapshot, err := doc.snapshot()
	if err != nil {
		return localstore.Snapshot{}, errors.Wrap(err, "restore store file")
	}

	b.logger.InfoContext(ctx, "persisted snapshot loaded",
		"path", b.path,
		"saved_at", doc.SavedAt,
	)
	return snapshot, nil
}

// Commit writes the whole snapshot; touched is ignored because the document is always rewritten.
func (b *Backend) Commit(ctx context.Context, snapshot localstore.Snapshot, _ []localstore.Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := toDocument(snapshot, b.now().UTC())
	if err := b.validator.Struct(&doc); err != nil {
		return errors.Wrap(err, "validate before save")
	}
	payload, err := sonic.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "encode store file")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return localstore.ErrClosed
	}
	return b.writeAtomic(payload)
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// writeAtomic replaces the store file through a synced temp file in the same directory.
func (b *Backend) writeAtomic(payload []byte) error {
	tmpFile, err := os.CreateTemp(b.dir, b.base+".tmp-")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := tmpFile.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpFile.Name(), b.path); err != nil {
		return errors.Wrap(err, "replace store file")
	}

	return nil
}
