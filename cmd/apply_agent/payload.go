package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/payload"
)

var payloadCmd = &cobra.Command{
	Use:   "payload",
	Short: "Manage the stored resume",
}

var payloadSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save a resume file or plain text as the stored payload",
	RunE:  runPayloadSet,
}

var payloadShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Describe the stored resume",
	RunE:  runPayloadShow,
}

var (
	payloadSetFile     string
	payloadSetText     string
	payloadDatabaseURL string
)

func init() {
	payloadSetCmd.Flags().StringVar(&payloadSetFile, "file", "", "Resume file to store")
	payloadSetCmd.Flags().StringVar(&payloadSetText, "text", "", "Plain-text resume fallback to store")
	payloadCmd.PersistentFlags().StringVar(&payloadDatabaseURL, "db-url", "", "Database URL (overrides DATABASE_URL env var)")

	payloadCmd.AddCommand(payloadSetCmd)
	payloadCmd.AddCommand(payloadShowCmd)
	rootCmd.AddCommand(payloadCmd)
}

func payloadStore(ctx context.Context) (*db.ResumeStore, func(), error) {
	databaseURL := payloadDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	return db.NewResumeStore(database, ""), database.Close, nil
}

func runPayloadSet(_ *cobra.Command, _ []string) error {
	if payloadSetFile == "" && payloadSetText == "" {
		return fmt.Errorf("provide --file or --text")
	}

	ctx := context.Background()
	store, closeDB, err := payloadStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if payloadSetFile != "" {
		raw, err := os.ReadFile(payloadSetFile)
		if err != nil {
			return fmt.Errorf("failed to read resume file: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(payloadSetFile))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		file := payload.StoredFile{
			Name:     filepath.Base(payloadSetFile),
			MIMEType: mimeType,
			Base64:   base64.StdEncoding.EncodeToString(raw),
		}
		if err := store.SaveResumeFile(ctx, file); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Stored %s (%s, %d bytes)\n", file.Name, file.MIMEType, len(raw))
	}

	if payloadSetText != "" {
		if err := store.SaveResumeText(ctx, payloadSetText); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Stored plain-text resume fallback")
	}
	return nil
}

func runPayloadShow(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	store, closeDB, err := payloadStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	pay, err := payload.NewProvider(store).Payload(ctx)
	if err != nil {
		return err
	}
	if pay == nil {
		fmt.Fprintln(os.Stdout, "No resume stored")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%s (%s, %d bytes)\n", pay.Filename, pay.MIMEType, pay.Size())
	return nil
}
