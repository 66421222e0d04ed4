package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriveSource struct {
	files    map[string]string
	err      error
	folderID string
}

func (f *fakeDriveSource) ListSpreadsheets(_ context.Context, folderID string) ([]*drive.File, error) {
	f.folderID = folderID
	if f.err != nil {
		return nil, f.err
	}
	var out []*drive.File
	for name := range f.files {
		out = append(out, &drive.File{ID: "id-" + name, Name: name})
	}
	return out, nil
}

func (f *fakeDriveSource) Download(_ context.Context, opts drive.DownloadOptions) ([]string, error) {
	f.folderID = opts.FolderID
	if f.err != nil {
		return nil, f.err
	}
	paths := make([]string, 0, len(opts.Names))
	for _, name := range opts.Names {
		content, ok := f.files[name]
		if !ok {
			return nil, errors.New("file not found: " + name)
		}
		path := filepath.Join(opts.DownloadDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newDriveRouter(t *testing.T, src DriveSource) (*gin.Engine, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sess := session.New(session.Options{ExportDir: t.TempDir()})
	h := NewDriveHandler(src, sess, "default-folder", t.TempDir(), zerolog.Nop())

	r := gin.New()
	r.GET("/drive/files", h.ListFiles)
	r.POST("/drive/import", h.Import)
	return r, sess
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const (
	driveSales   = "SKU,Name,d1,d2,d3\nA,Widget,10,20,30\nB,Gadget,1,1,1\n"
	driveWeights = "SKU,Вес\nA,1\nB,0.5\n"
)

func TestDriveListFiles(t *testing.T) {
	src := &fakeDriveSource{files: map[string]string{"sales.csv": driveSales}}
	r, _ := newDriveRouter(t, src)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drive/files", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "default-folder", src.folderID)

	var body struct {
		Files []drive.File `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Files, 1)
	assert.Equal(t, "sales.csv", body.Files[0].Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drive/files?folder_id=other", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "other", src.folderID)

	src.err = errors.New("drive unavailable")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/drive/files", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDriveImport(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		err       error
		body      string
		want      int
		wantSales int
	}{
		{
			name:      "loads both files",
			files:     map[string]string{"sales.csv": driveSales, "weights.csv": driveWeights},
			body:      `{"folder_id":"f1","sales":"sales.csv","weights":"weights.csv"}`,
			want:      http.StatusOK,
			wantSales: 2,
		},
		{
			name: "download failure",
			err:  errors.New("quota exceeded"),
			body: `{"sales":"sales.csv","weights":"weights.csv"}`,
			want: http.StatusBadGateway,
		},
		{
			name:  "bad weights installs nothing",
			files: map[string]string{"sales.csv": driveSales, "weights.csv": "SKU,Вес\nA,-1\n"},
			body:  `{"sales":"sales.csv","weights":"weights.csv"}`,
			want:  http.StatusBadRequest,
		},
		{
			name: "missing weights name",
			body: `{"sales":"sales.csv"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			body: `{"sales":`,
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, sess := newDriveRouter(t, &fakeDriveSource{files: tt.files, err: tt.err})

			w := postJSON(r, "/drive/import", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			st := sess.Status()
			assert.Equal(t, tt.wantSales, st.SalesRows)
			if tt.want != http.StatusOK {
				assert.Equal(t, 0, st.Weights)
			}
		})
	}
}
