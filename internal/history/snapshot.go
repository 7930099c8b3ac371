package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key is the snapshot key of the configurable widget; the basic widget
// of earlier site versions used "chatbot_history".
const Key = "enhanced_chatbot_history"

// Snapshot is the durable storage behind a Store
type Snapshot interface {
	Save(data []byte) error
	Load() ([]byte, error)
	Delete() error
}

// FileSnapshot persists history to a local JSON file, the desktop analog
// of the browser widget's local storage
type FileSnapshot struct {
	Path string
}

// NewFileSnapshot stores history under dir using the default key
func NewFileSnapshot(dir string) *FileSnapshot {
	return &FileSnapshot{Path: filepath.Join(dir, Key+".json")}
}

func (f *FileSnapshot) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileSnapshot) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *FileSnapshot) Delete() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisSnapshot persists history in Redis, used by the self-service
// kiosks in the court lobby where sessions roam between terminals
type RedisSnapshot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshot stores history under key with the given TTL
func NewRedisSnapshot(client *redis.Client, key string, ttl time.Duration) *RedisSnapshot {
	if key == "" {
		key = Key
	}
	return &RedisSnapshot{client: client, key: key, ttl: ttl}
}

func (r *RedisSnapshot) Save(data []byte) error {
	return r.client.Set(context.Background(), r.key, data, r.ttl).Err()
}

func (r *RedisSnapshot) Load() ([]byte, error) {
	data, err := r.client.Get(context.Background(), r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (r *RedisSnapshot) Delete() error {
	return r.client.Del(context.Background(), r.key).Err()
}
