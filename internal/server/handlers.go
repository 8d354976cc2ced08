package server

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/payload"
	"github.com/jonathan/apply-agent/internal/types"
)

// handleToken exchanges the shared API key for a bearer token the extension
// sends on subsequent requests.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req types.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		s.errorResponse(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	token, err := s.jwtService.GenerateToken(uuid.New())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	s.jsonResponse(w, http.StatusOK, types.TokenResponse{Token: token})
}

// handleAttach runs a live attachment against the requested page and returns
// the structured result. Attachment failures are reported outcomes, not HTTP
// errors.
func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var req types.AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.runner == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "attachment runner not configured")
		return
	}

	log.Printf("Starting attachment run for %s", req.URL)
	result, err := s.runner.Attach(r.Context(), req.URL)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListRuns returns recent attachment runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []db.AttachRun{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

// handleGetPayload describes the stored resume without echoing its bytes.
func (s *Server) handleGetPayload(w http.ResponseWriter, r *http.Request) {
	file, err := s.store.ResumeFile(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	text, err := s.store.ResumeText(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if file == nil && text == "" {
		s.errorResponse(w, http.StatusNotFound, "no resume stored")
		return
	}

	resp := types.PayloadResponse{HasText: text != ""}
	if file != nil {
		resp.FileName = file.Name
		resp.MIMEType = file.MIMEType
		if raw, decErr := base64.StdEncoding.DecodeString(file.Base64); decErr == nil {
			resp.SizeBytes = len(raw)
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handlePutPayload replaces the stored resume.
func (s *Server) handlePutPayload(w http.ResponseWriter, r *http.Request) {
	var req types.UpdatePayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Base64 != "" {
		file := payload.StoredFile{Name: req.FileName, MIMEType: req.MIMEType, Base64: req.Base64}
		if err := s.store.SaveResumeFile(r.Context(), file); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.Text != "" {
		if err := s.store.SaveResumeText(r.Context(), req.Text); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved"})
}
