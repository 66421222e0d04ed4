package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for k, v := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryStore) DownloadObject(_ context.Context, key, destPath string) error {
	data, ok := m.objects[key]
	if !ok {
		return errors.New("no such key " + key)
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (m *memoryStore) UploadObject(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) ObjectURL(_ context.Context, key string) (string, error) {
	return "https://s3.example/" + key, nil
}

func TestResolveObjectKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"", "sales.xlsx", "sales.xlsx"},
		{"orders", "plan.xlsx", "orders/plan.xlsx"},
		{"/orders/", "/plan.xlsx", "orders/plan.xlsx"},
		{"orders", "orders/plan.xlsx", "orders/plan.xlsx"},
		{"in/2025", "sales.csv", "in/2025/sales.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveObjectKey(tt.prefix, tt.name), "%q + %q", tt.prefix, tt.name)
	}
}

func TestObjectRelativePath(t *testing.T) {
	assert.Equal(t, "a/b.csv", ObjectRelativePath("", "a/b.csv"))
	assert.Equal(t, "b.csv", ObjectRelativePath("a", "a/b.csv"))
	assert.Equal(t, "sub/b.csv", ObjectRelativePath("a/", "a/sub/b.csv"))
}

func TestExportPublisher(t *testing.T) {
	store := newMemoryStore()
	pub := NewExportPublisher(store, " orders/ ")

	url, err := pub.Publish(context.Background(), "order_14_days_01.01.2025.xlsx", []byte("PK"))
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/orders/order_14_days_01.01.2025.xlsx", url)
	assert.Equal(t, []byte("PK"), store.objects["orders/order_14_days_01.01.2025.xlsx"])
	assert.Equal(t, xlsxContentType, store.types["orders/order_14_days_01.01.2025.xlsx"])
}

func TestDownloadInputs(t *testing.T) {
	store := newMemoryStore()
	store.objects["in/sales.xlsx"] = []byte("sales")
	store.objects["in/weights.csv"] = []byte("weights")
	store.objects["in/readme.txt"] = []byte("skip")
	store.objects["other/sales.xlsx"] = []byte("other")

	dest := t.TempDir()
	paths, err := DownloadInputs(context.Background(), store, "in", nil, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dest, "sales.xlsx"), filepath.Join(dest, "weights.csv")}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))

	paths, err = DownloadInputs(context.Background(), store, "in", []string{"weights.csv"}, t.TempDir())
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	_, err = DownloadInputs(context.Background(), store, "empty", nil, t.TempDir())
	assert.Error(t, err)
}

func TestIsSpreadsheetKey(t *testing.T) {
	assert.True(t, IsSpreadsheetKey("a/B.XLSX"))
	assert.True(t, IsSpreadsheetKey("b.csv"))
	assert.False(t, IsSpreadsheetKey("c.xls"))
	assert.False(t, IsSpreadsheetKey("dir/"))
}

func TestNewMinioClient_Validation(t *testing.T) {
	base := config.StorageConfig{Endpoint: "s3.example.com", AccessKey: "ak", SecretKey: "sk", Bucket: "plans"}

	_, err := NewMinioClient(base)
	require.NoError(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "https://s3.example.com/", AccessKey: "ak", SecretKey: "sk", Bucket: "plans"})
	require.NoError(t, err)

	missing := []config.StorageConfig{
		{AccessKey: "ak", SecretKey: "sk", Bucket: "plans"},
		{Endpoint: "s3.example.com", Bucket: "plans"},
		{Endpoint: "s3.example.com", AccessKey: "ak", SecretKey: "sk"},
	}
	for _, cfg := range missing {
		_, err := NewMinioClient(cfg)
		assert.Error(t, err)
	}
}

var _ ObjectStorage = (*memoryStore)(nil)
