package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"proctorx_backend/internals/configs"
)

// ObjectStorage stores proctoring images and returns a publicly reachable URL.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// NewFromEnv picks the driver from STORAGE_DRIVER (supabase | oss | memory).
func NewFromEnv() (ObjectStorage, error) {
	bucket := configs.GetEnv("SNAPSHOT_BUCKET", "proctor-snaps")
	switch strings.ToLower(configs.GetEnv("STORAGE_DRIVER", "supabase")) {
	case "supabase":
		return NewSupabaseStorage(
			configs.GetEnv("SUPABASE_PROJECT_URL"),
			configs.GetEnv("SUPABASE_SERVICE_ROLE_KEY"),
			bucket,
		)
	case "oss":
		return NewOSSStorageFromEnv(bucket)
	case "memory":
		log.Println("[WARN] STORAGE_DRIVER=memory, snapshots are not persisted")
		return NewMemoryStorage("memory://" + bucket), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", configs.GetEnv("STORAGE_DRIVER"))
	}
}

/* =======================================================================
   In-memory driver (tests and local runs)
======================================================================= */

type StoredObject struct {
	ContentType string
	Data        []byte
}

type MemoryStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{BaseURL: strings.TrimRight(baseURL, "/"), objects: map[string]StoredObject{}}
}

func (m *MemoryStorage) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{ContentType: contentType, Data: append([]byte(nil), data...)}
	return m.BaseURL + "/" + key, nil
}

func (m *MemoryStorage) Get(key string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
