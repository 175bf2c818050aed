package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/artifacts"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
	schemadefs "github.com/jonathan/resume-tailor/schemas"
)

// TailorResponse is returned by POST /api/tailor
type TailorResponse struct {
	JobID  string          `json:"job_id"`
	Status types.JobStatus `json:"status"`
}

// DeleteResultResponse is returned by DELETE /api/results/{id}
type DeleteResultResponse struct {
	ID      string   `json:"id"`
	Deleted []string `json:"deleted"`
}

// handleTailor validates the body and submits a tailoring job
func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if !json.Valid(body) {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := schemas.Validate(schemadefs.JobRequest, body); err != nil {
		s.errorResponse(w, err)
		return
	}

	var req types.JobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	id, err := s.orch.Submit(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/jobs/%s/status", id))
	s.jsonResponse(w, http.StatusAccepted, TailorResponse{JobID: id, Status: types.JobStatusPending})
}

// handleListJobs returns every known job
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.orch.List(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// handleJobStatus returns the non-blocking status snapshot of a job
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.orch.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleCancelJob requests cancellation; the job stops at its next step boundary
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.orch.Cancel(r.Context(), id); err != nil {
		s.errorResponse(w, err)
		return
	}
	snap, err := s.orch.Status(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, snap)
}

// heartbeatPolls is how many unchanged polls pass between keep-alive comments
const heartbeatPolls = 30

// handleJobEvents streams status snapshots until the job is terminal
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := s.orch.Status(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	stream, err := newJobStream(w)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last *pipeline.StatusSnapshot
	idle := 0
	for {
		if changed(last, snap) {
			if err := stream.send(eventStatus, snap); err != nil {
				s.logger.Warn("Error writing SSE event", "job_id", id, "error", err)
				return
			}
			last = snap
			idle = 0
		} else {
			idle++
			if idle >= heartbeatPolls {
				if err := stream.heartbeat(); err != nil {
					return
				}
				idle = 0
			}
		}
		if snap.Status.IsTerminal() {
			if err := stream.complete(id, snap.Status); err != nil {
				s.logger.Warn("Error writing SSE event", "job_id", id, "error", err)
			}
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap, err = s.orch.Status(r.Context(), id)
		if err != nil {
			_ = stream.fail(err)
			return
		}
	}
}

// changed reports whether next carries anything the client has not seen
func changed(last, next *pipeline.StatusSnapshot) bool {
	if last == nil {
		return true
	}
	return last.Status != next.Status ||
		last.Percent != next.Percent ||
		!last.UpdatedAt.Equal(next.UpdatedAt)
}

// handleListResumes lists the original resumes available for tailoring
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	templates, err := s.orch.Templates().List(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"resumes": templates, "count": len(templates)})
}

// UploadResumeResponse is returned by POST /api/resumes
type UploadResumeResponse struct {
	ResumeID string `json:"resume_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// handleUploadResume stores a multipart "file" field as a new original resume
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	store, ok := s.orch.Templates().(pipeline.TemplateStore)
	if !ok {
		s.jsonResponse(w, http.StatusMethodNotAllowed, ErrorBody{Error: "template catalog is read-only", Kind: string(types.ErrorKindInput)})
		return
	}

	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxTemplateUpload+64<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: err.Error()})
		return
	}
	defer file.Close()

	name := header.Filename
	if filepath.Ext(name) != ".tex" {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: "only .tex files are allowed"})
		return
	}
	id := strings.TrimSuffix(name, ".tex")
	if !artifacts.ValidID(id) {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: fmt.Sprintf("invalid resume name %q", header.Filename)})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxTemplateUpload+1))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: err.Error()})
		return
	}
	if len(content) > maxTemplateUpload {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", maxTemplateUpload)})
		return
	}
	if len(bytes.TrimSpace(content)) == 0 {
		s.errorResponse(w, &ErrValidation{Field: "file", Message: "file is empty"})
		return
	}

	info, err := store.Save(r.Context(), id, content)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.logger.Info("Uploaded resume", "resume_id", info.ID, "size", info.Size)
	s.jsonResponse(w, http.StatusCreated, UploadResumeResponse{ResumeID: info.ID, Filename: info.Filename, Size: info.Size})
}

// handleListResults lists tailored artifacts on disk
func (s *Server) handleListResults(w http.ResponseWriter, _ *http.Request) {
	results, err := s.orch.Writer().List()
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

// handleResultFile downloads the .tex or .pdf of a result
func (s *Server) handleResultFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var ext, contentType string
	switch r.PathValue("ext") {
	case "tex":
		ext, contentType = artifacts.ExtTex, "application/x-tex"
	case "pdf":
		ext, contentType = artifacts.ExtPDF, "application/pdf"
	default:
		s.errorResponse(w, &ErrValidation{Field: "ext", Message: "must be tex or pdf"})
		return
	}

	path, err := s.orch.Writer().Open(id, ext)
	if err != nil {
		if errors.Is(err, artifacts.ErrNotFound) {
			err = fmt.Errorf("result %s%s: %w", id, ext, artifacts.ErrNotFound)
		}
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// handleDeleteResult removes both files of a result
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := s.orch.Writer().Delete(id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.logger.Info("Result deleted", "id", id, "files", deleted)
	s.jsonResponse(w, http.StatusOK, DeleteResultResponse{ID: id, Deleted: deleted})
}
