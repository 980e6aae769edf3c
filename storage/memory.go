package storage

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type MemoryObject struct {
	Body        []byte
	ContentType string
}

// MemoryStore keeps objects in process. Used in tests and for local runs
// without S3 credentials.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]MemoryObject), baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = MemoryObject{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return m.baseURL + "/" + key
}

func (m *MemoryStore) Get(key string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// ServeHTTP serves stored objects by key, so the URLs PublicURL hands out
// resolve when the store is mounted under its base path.
func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	obj, ok := m.Get(strings.TrimPrefix(r.URL.Path, "/"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
	w.Header().Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		return
	}
	w.Write(obj.Body)
}
