package storage

import (
	"bytes"
	"context"
	"path"
	"strings"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportPublisher uploads export files under a key prefix.
type ExportPublisher struct {
	store  ObjectStorage
	prefix string
}

func NewExportPublisher(store ObjectStorage, prefix string) *ExportPublisher {
	return &ExportPublisher{store: store, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}
}

// Publish uploads data as name and returns a download URL.
func (p *ExportPublisher) Publish(ctx context.Context, name string, data []byte) (string, error) {
	key := ResolveObjectKey(p.prefix, name)
	if err := p.store.UploadObject(ctx, key, bytes.NewReader(data), int64(len(data)), xlsxContentType); err != nil {
		return "", err
	}
	return p.store.ObjectURL(ctx, key)
}

// ResolveObjectKey joins prefix and name unless name already starts with prefix.
func ResolveObjectKey(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if prefix == "" {
		return name
	}
	if strings.HasPrefix(name, prefix+"/") {
		return name
	}
	return path.Join(prefix, name)
}

// ObjectRelativePath strips prefix from key for local placement.
func ObjectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return path.Base(key)
	}
	return rel
}
