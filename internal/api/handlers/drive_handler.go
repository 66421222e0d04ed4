package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DriveSource lists and downloads planner inputs from Google Drive.
type DriveSource interface {
	ListSpreadsheets(ctx context.Context, folderID string) ([]*drive.File, error)
	Download(ctx context.Context, opts drive.DownloadOptions) ([]string, error)
}

type driveImportRequest struct {
	FolderID string `json:"folder_id"`
	Sales    string `json:"sales" validate:"required"`
	Weights  string `json:"weights" validate:"required"`
}

type DriveHandler struct {
	source        DriveSource
	session       *session.Session
	defaultFolder string
	downloadDir   string
	log           zerolog.Logger
}

func NewDriveHandler(source DriveSource, sess *session.Session, defaultFolder, downloadDir string, log zerolog.Logger) *DriveHandler {
	return &DriveHandler{
		source:        source,
		session:       sess,
		defaultFolder: defaultFolder,
		downloadDir:   downloadDir,
		log:           log,
	}
}

func (h *DriveHandler) folder(id string) string {
	if id != "" {
		return id
	}
	return h.defaultFolder
}

// ListFiles returns the spreadsheets in ?folder_id= or the configured folder.
func (h *DriveHandler) ListFiles(c *gin.Context) {
	files, err := h.source.ListSpreadsheets(c.Request.Context(), h.folder(c.Query("folder_id")))
	if err != nil {
		h.log.Error().Err(err).Msg("drive listing failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Import downloads the named sales and weight files and loads them.
func (h *DriveHandler) Import(c *gin.Context) {
	var req driveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		validationFailed(c, err)
		return
	}

	dir := h.downloadDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "autoorder-drive-")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	paths, err := h.source.Download(c.Request.Context(), drive.DownloadOptions{
		FolderID:    h.folder(req.FolderID),
		DownloadDir: dir,
		Names:       []string{req.Sales, req.Weights},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("drive download failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if len(paths) != 2 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "drive returned an unexpected number of files"})
		return
	}

	if err := h.session.LoadInputFiles(paths[0], paths[1]); err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("drive import failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	st := h.session.Status()
	c.JSON(http.StatusOK, gin.H{
		"sales_rows":   st.SalesRows,
		"date_columns": st.DateColumns,
		"weights":      st.Weights,
	})
}
