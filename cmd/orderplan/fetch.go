package main

import (
	"fmt"

	"github.com/andresuchdata/autoorder/internal/config"
	"github.com/andresuchdata/autoorder/internal/drive"
	"github.com/andresuchdata/autoorder/internal/storage"
	"github.com/andresuchdata/autoorder/pkg/logger"
	"github.com/urfave/cli/v2"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download input spreadsheets from Google Drive or an S3-compatible bucket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "drive or s3",
				Value: "drive",
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Local directory receiving the files",
				Value: "./data/uploads",
			},
			&cli.StringSliceFlag{
				Name:  "name",
				Usage: "File name or object key to fetch (repeatable); all spreadsheets when omitted",
			},
			&cli.StringFlag{
				Name:    "drive-credentials",
				Usage:   "Service account JSON",
				EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
			},
			&cli.StringFlag{
				Name:    "drive-folder",
				EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
			},
			&cli.StringFlag{
				Name:    "s3-endpoint",
				EnvVars: []string{"STORAGE_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "s3-access-key",
				EnvVars: []string{"STORAGE_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "s3-secret-key",
				EnvVars: []string{"STORAGE_SECRET_KEY"},
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				EnvVars: []string{"STORAGE_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "s3-region",
				EnvVars: []string{"STORAGE_REGION"},
			},
			&cli.BoolFlag{
				Name:    "s3-use-ssl",
				Value:   true,
				EnvVars: []string{"STORAGE_USE_SSL"},
			},
			&cli.StringFlag{
				Name:  "s3-prefix",
				Usage: "Key prefix holding the input files",
			},
		},
		Action: runFetch,
	}
}

func runFetch(c *cli.Context) error {
	log := logger.Component("fetch")
	dest := c.String("dest")
	names := c.StringSlice("name")

	var (
		paths []string
		err   error
	)
	switch c.String("source") {
	case "drive":
		creds := c.String("drive-credentials")
		if creds == "" {
			return fmt.Errorf("drive credentials are required (--drive-credentials or GOOGLE_DRIVE_CREDENTIALS_JSON)")
		}
		svc, svcErr := drive.NewService(c.Context, creds)
		if svcErr != nil {
			return svcErr
		}
		paths, err = drive.NewDownloader(svc).Download(c.Context, drive.DownloadOptions{
			FolderID:    c.String("drive-folder"),
			DownloadDir: dest,
			Names:       names,
		})
	case "s3":
		store, storeErr := storage.NewMinioClient(config.StorageConfig{
			Endpoint:  c.String("s3-endpoint"),
			AccessKey: c.String("s3-access-key"),
			SecretKey: c.String("s3-secret-key"),
			Bucket:    c.String("s3-bucket"),
			Region:    c.String("s3-region"),
			UseSSL:    c.Bool("s3-use-ssl"),
		})
		if storeErr != nil {
			return storeErr
		}
		paths, err = storage.DownloadInputs(c.Context, store, c.String("s3-prefix"), names, dest)
	default:
		return fmt.Errorf("unknown source %q (drive or s3)", c.String("source"))
	}
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	log.Info().Int("files", len(paths)).Str("dest", dest).Msg("inputs downloaded")
	return nil
}
