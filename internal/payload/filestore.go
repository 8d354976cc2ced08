package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// profileFile is the JSON shape of an exported extension profile. Only the
// resume fields are consumed here.
type profileFile struct {
	ResumeFile *struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Base64 string `json:"base64"`
	} `json:"resume_file,omitempty"`
	ResumeText string `json:"resume_text,omitempty"`
}

// FileStore reads the resume from a JSON profile file, for CLI use without a
// database. The file is re-read on every call; storage stays the source of truth.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// ResumeFile returns the stored binary resume, or nil when absent.
func (s *FileStore) ResumeFile(_ context.Context) (*StoredFile, error) {
	profile, err := s.load()
	if err != nil || profile.ResumeFile == nil {
		return nil, err
	}
	return &StoredFile{
		Name:     profile.ResumeFile.Name,
		MIMEType: profile.ResumeFile.Type,
		Base64:   profile.ResumeFile.Base64,
	}, nil
}

// ResumeText returns the stored plain-text resume, or "" when absent.
func (s *FileStore) ResumeText(_ context.Context) (string, error) {
	profile, err := s.load()
	if err != nil {
		return "", err
	}
	return profile.ResumeText, nil
}

func (s *FileStore) load() (*profileFile, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return &profileFile{}, nil
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", s.Path, err)
	}
	var profile profileFile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", s.Path, err)
	}
	return &profile, nil
}
