package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("https://files.test/")

	require.NoError(t, m.Put(ctx, "photo-ids/u1/profile/a.jpg", []byte("a"), "image/jpeg"))
	require.NoError(t, m.Put(ctx, "photo-ids/u1/aadhaarFront/b.jpg", []byte("b"), "image/jpeg"))

	keys, err := m.List(ctx, "photo-ids/u1/profile/")
	require.NoError(t, err)
	assert.Equal(t, []string{"photo-ids/u1/profile/a.jpg"}, keys)

	require.NoError(t, m.Delete(ctx, keys...))
	_, ok := m.Get("photo-ids/u1/profile/a.jpg")
	assert.False(t, ok)
	_, ok = m.Get("photo-ids/u1/aadhaarFront/b.jpg")
	assert.True(t, ok)

	assert.Equal(t, "https://files.test/k.jpg", m.PublicURL("k.jpg"))
}

func TestMemoryStoreServesObjects(t *testing.T) {
	m := NewMemoryStore("http://localhost/files")
	require.NoError(t, m.Put(context.Background(), "photo-ids/u1/profile/a.jpg", []byte("jpeg"), "image/jpeg"))

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photo-ids/u1/profile/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg", rec.Body.String())

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/photo-ids/u1/profile/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photo-ids/u1/profile/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// fakeS3 answers the handful of path-style S3 calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != "photos" {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchBucket</Code><Message>The specified bucket does not exist</Message></Error>`)
		return
	}

	switch {
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = string(body)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>photos</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>`, prefix, len(keys))
		for _, k := range keys {
			fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>%d</Size></Contents>`, k, len(f.objects[k]))
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, b.String())
	case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
		body, _ := io.ReadAll(r.Body)
		for _, part := range strings.Split(string(body), "<Key>")[1:] {
			k, _, _ := strings.Cut(part, "</Key>")
			delete(f.objects, k)
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFakeS3Store(t *testing.T, bucket string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		Bucket:    bucket,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return store, fake
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeS3Store(t, "photos")

	require.NoError(t, store.Put(ctx, "photo-ids/u1/profile/a.jpg", []byte("jpeg"), "image/jpeg"))
	require.NoError(t, store.Put(ctx, "photo-ids/u1/aadhaarBack/b.jpg", []byte("jpeg"), "image/jpeg"))

	keys, err := store.List(ctx, "photo-ids/u1/profile/")
	require.NoError(t, err)
	assert.Equal(t, []string{"photo-ids/u1/profile/a.jpg"}, keys)

	require.NoError(t, store.Delete(ctx, keys...))
	require.NoError(t, store.Delete(ctx))

	fake.mu.Lock()
	_, stillThere := fake.objects["photo-ids/u1/profile/a.jpg"]
	remaining := len(fake.objects)
	fake.mu.Unlock()
	assert.False(t, stillThere)
	assert.Equal(t, 1, remaining)

	assert.True(t, strings.HasSuffix(store.PublicURL("k.jpg"), "/photos/k.jpg"))
}

func TestS3StoreErrorCode(t *testing.T) {
	store, _ := newFakeS3Store(t, "missing")
	_, err := store.List(context.Background(), "photo-ids/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchBucket")
}
