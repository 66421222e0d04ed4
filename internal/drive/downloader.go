package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
	// Names restricts the download to these file names. Empty means every
	// spreadsheet in the folder.
	Names []string
}

// Downloader pulls input spreadsheets from a Drive folder.
type Downloader struct {
	service *Service
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// IsSpreadsheet reports whether a Drive file can be read as a planner input.
func IsSpreadsheet(f *File) bool {
	if f.IsNativeSheet() {
		return true
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	return ext == ".csv" || ext == ".xlsx"
}

// LocalName is the file name used on disk for f. Directory parts of the
// Drive name are dropped and an empty result means the name is unusable.
// Native sheets get an .xlsx extension because they are exported in that
// format.
func LocalName(f *File) string {
	name := filepath.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	if f.IsNativeSheet() && strings.ToLower(filepath.Ext(name)) != ".xlsx" {
		return name + ".xlsx"
	}
	return name
}

// Download fetches the selected spreadsheets into DownloadDir and returns
// their local paths in listing order.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.selectFiles(ctx, opts)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := LocalName(f)
		if name == "" {
			return nil, fmt.Errorf("drive file %s has an unusable name %q", f.ID, f.Name)
		}
		localPath := filepath.Join(opts.DownloadDir, name)
		if err := d.downloadTo(ctx, f, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

// ListSpreadsheets lists the planner inputs available in folderID.
func (d *Downloader) ListSpreadsheets(ctx context.Context, folderID string) ([]*File, error) {
	all, err := d.service.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(all))
	for _, f := range all {
		if IsSpreadsheet(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

func (d *Downloader) selectFiles(ctx context.Context, opts DownloadOptions) ([]*File, error) {
	if len(opts.Names) > 0 {
		files := make([]*File, 0, len(opts.Names))
		for _, name := range opts.Names {
			f, err := d.service.FindFileByName(ctx, opts.FolderID, name)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		return files, nil
	}

	return d.ListSpreadsheets(ctx, opts.FolderID)
}

func (d *Downloader) downloadTo(ctx context.Context, f *File, localPath string) error {
	tmp := localPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", tmp, err)
	}
	if err := d.service.DownloadFile(ctx, f, out); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, localPath)
}
