package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsSpreadsheetKey reports whether key names an xlsx or csv object.
func IsSpreadsheetKey(key string) bool {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".xlsx", ".csv":
		return true
	default:
		return false
	}
}

// DownloadInputs copies planner inputs under prefix into destDir. When names
// is empty every spreadsheet under prefix is fetched. Local paths are
// returned sorted.
func DownloadInputs(ctx context.Context, store ObjectStorage, prefix string, names []string, destDir string) ([]string, error) {
	var keys []string

	if len(names) > 0 {
		for _, name := range names {
			keys = append(keys, ResolveObjectKey(prefix, name))
		}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := store.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if IsSpreadsheetKey(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no spreadsheet files found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(destDir, filepath.FromSlash(ObjectRelativePath(prefix, key)))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := store.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}
