package overrides

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/pkg/redis"
)

// ErrBackendUnavailable is returned by a backend that cannot serve requests
var ErrBackendUnavailable = errors.New("blob backend unavailable")

// Compile-time interface checks
var (
	_ contracts.BlobStore = (*MemoryBlobStore)(nil)
	_ contracts.BlobStore = (*FileBlobStore)(nil)
	_ contracts.BlobStore = (*RedisBlobStore)(nil)
	_ contracts.BlobStore = (*PostgresBlobStore)(nil)
)

// ============================================================================
// Memory
// ============================================================================

// MemoryBlobStore keeps blobs in process memory (tests, ephemeral runs)
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Get returns a copy of the blob
func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of the blob
func (s *MemoryBlobStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

// ============================================================================
// File
// ============================================================================

// FileBlobStore keeps each blob in <dir>/<key>.json
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore creates a file store rooted at dir (created on first write)
func NewFileBlobStore(dir string) *FileBlobStore {
	return &FileBlobStore{dir: dir}
}

func (s *FileBlobStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the blob file; a missing file is not an error
func (s *FileBlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", p, err)
	}
	return data, true, nil
}

// Set writes the blob atomically (temp file + rename)
func (s *FileBlobStore) Set(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename to %s: %w", p, err)
	}
	return nil
}

// ============================================================================
// Redis
// ============================================================================

// RedisBlobStore keeps blobs under moat:kv:<key>
type RedisBlobStore struct {
	client *redis.Client
}

// NewRedisBlobStore creates a Redis-backed store
func NewRedisBlobStore(client *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{client: client}
}

// Get reads the blob
func (s *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.client.Enabled() {
		return nil, false, ErrBackendUnavailable
	}

	data, err := s.client.Redis().Get(ctx, redis.Key("kv", key)).Bytes()
	if redis.IsNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the blob without expiry
func (s *RedisBlobStore) Set(ctx context.Context, key string, data []byte) error {
	if !s.client.Enabled() {
		return ErrBackendUnavailable
	}

	if err := s.client.Redis().Set(ctx, redis.Key("kv", key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ============================================================================
// Postgres
// ============================================================================

// PostgresBlobStore keeps blobs in app.kv (JSONB)
type PostgresBlobStore struct {
	pool *pgxpool.Pool
}

// NewPostgresBlobStore creates a Postgres-backed store
func NewPostgresBlobStore(pool *pgxpool.Pool) *PostgresBlobStore {
	return &PostgresBlobStore{pool: pool}
}

// Get reads the blob
func (s *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM app.kv WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select kv %s: %w", key, err)
	}
	return data, true, nil
}

// Set upserts the blob; data must be valid JSON
func (s *PostgresBlobStore) Set(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app.kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, data)
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}
