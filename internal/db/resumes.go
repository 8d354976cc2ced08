package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/apply-agent/internal/payload"
)

// DefaultProfile keys the single-user resume row.
const DefaultProfile = "default"

// ResumeStore reads and writes the stored resume for one profile. It
// satisfies payload.Store so the engine can rebuild payloads from Postgres.
type ResumeStore struct {
	db      *DB
	profile string
}

// NewResumeStore returns a store bound to profile, or DefaultProfile when
// profile is empty.
func NewResumeStore(db *DB, profile string) *ResumeStore {
	if profile == "" {
		profile = DefaultProfile
	}
	return &ResumeStore{db: db, profile: profile}
}

// ResumeFile returns the stored binary resume, or nil when none is saved.
func (s *ResumeStore) ResumeFile(ctx context.Context) (*payload.StoredFile, error) {
	var file payload.StoredFile
	err := s.db.pool.QueryRow(ctx,
		`SELECT COALESCE(file_name, ''), COALESCE(mime_type, ''), COALESCE(base64_content, '')
		 FROM stored_resumes WHERE profile = $1`,
		s.profile,
	).Scan(&file.Name, &file.MIMEType, &file.Base64)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stored resume: %w", err)
	}
	if file.Base64 == "" {
		return nil, nil
	}
	return &file, nil
}

// ResumeText returns the stored plain-text resume, empty when none is saved.
func (s *ResumeStore) ResumeText(ctx context.Context) (string, error) {
	var text string
	err := s.db.pool.QueryRow(ctx,
		`SELECT COALESCE(text_content, '') FROM stored_resumes WHERE profile = $1`,
		s.profile,
	).Scan(&text)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get stored resume text: %w", err)
	}
	return text, nil
}

// SaveResumeFile upserts the binary resume for the profile.
func (s *ResumeStore) SaveResumeFile(ctx context.Context, file payload.StoredFile) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO stored_resumes (profile, file_name, mime_type, base64_content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile) DO UPDATE SET file_name = $2, mime_type = $3, base64_content = $4, updated_at = NOW()`,
		s.profile, file.Name, file.MIMEType, file.Base64,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume file: %w", err)
	}
	return nil
}

// SaveResumeText upserts the plain-text resume for the profile.
func (s *ResumeStore) SaveResumeText(ctx context.Context, text string) error {
	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO stored_resumes (profile, text_content)
		 VALUES ($1, $2)
		 ON CONFLICT (profile) DO UPDATE SET text_content = $2, updated_at = NOW()`,
		s.profile, text,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume text: %w", err)
	}
	return nil
}
