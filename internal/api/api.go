package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/autoorder/internal/api/handlers"
	"github.com/andresuchdata/autoorder/internal/api/middleware"
	"github.com/andresuchdata/autoorder/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Options configures the router beyond the session it serves.
type Options struct {
	AllowedOrigins []string
	UploadDir      string
	DefaultPeriod  int
	Logger         zerolog.Logger

	// Drive enables the Google Drive import routes when set.
	Drive       handlers.DriveSource
	DriveFolder string
}

func NewRouter(sess *session.Session, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(opts.Logger))
	router.Use(middleware.Recovery(opts.Logger))
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	planHandler := handlers.NewPlanHandler(sess, opts.UploadDir, opts.DefaultPeriod, opts.Logger)

	router.GET("/health", planHandler.Health)

	planGroup := router.Group("/api/v1/plan")
	{
		planGroup.GET("/health", planHandler.Health)
		planGroup.GET("/status", planHandler.Status)
		planGroup.POST("/sales", planHandler.UploadSales)
		planGroup.POST("/weights", planHandler.UploadWeights)
		planGroup.POST("/compute", planHandler.Compute)

		ledgerGroup := planGroup.Group("/ledger")
		{
			ledgerGroup.GET("", planHandler.GetLedger)
			ledgerGroup.PUT("/:position", planHandler.OverridePosition)
			ledgerGroup.PUT("/sku/:sku", planHandler.OverrideSKU)
			ledgerGroup.PUT("/key/:key", planHandler.OverrideKey)
		}

		planGroup.POST("/export", planHandler.Export)
		planGroup.GET("/export/download", planHandler.DownloadExport)

		if opts.Drive != nil {
			driveHandler := handlers.NewDriveHandler(opts.Drive, sess, opts.DriveFolder, opts.UploadDir, opts.Logger)
			driveGroup := planGroup.Group("/drive")
			{
				driveGroup.GET("/files", driveHandler.ListFiles)
				driveGroup.POST("/import", driveHandler.Import)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
