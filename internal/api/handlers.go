package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ydssx/ai-video-maker/internal/models"
	"github.com/ydssx/ai-video-maker/internal/render"
	"github.com/ydssx/ai-video-maker/internal/services"
	"github.com/ydssx/ai-video-maker/internal/worker"
)

type Handler struct {
	controller *render.JobController
	dispatcher worker.Dispatcher
	scripts    *services.ScriptGenService
}

func NewHandler(controller *render.JobController, dispatcher worker.Dispatcher, scripts *services.ScriptGenService) *Handler {
	return &Handler{
		controller: controller,
		dispatcher: dispatcher,
		scripts:    scripts,
	}
}

// CreateVideo handles POST /v1/videos
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.controller.Submit(req.Script, req.RenderConfig())
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), job.ID); err != nil {
		if errors.Is(err, render.ErrQueueFull) {
			// The job exists but never starts; cancel it so the record is
			// not left pending forever.
			h.controller.Cancel(job.ID)
			respondError(w, http.StatusServiceUnavailable, "Render queue is full, try again later")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to enqueue video")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateVideoResponse{
		VideoID: job.ID,
		Status:  job.Status,
	})
}

// GetVideo handles GET /v1/videos/{id}
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookupJob(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, models.VideoStatusResponse{
		VideoID:       job.ID,
		Status:        job.Status,
		Progress:      job.Progress,
		Message:       job.Message,
		OutputPath:    job.OutputPath,
		ThumbnailPath: job.ThumbnailPath,
		Duration:      job.Duration,
		Error:         job.Error,
		CreatedAt:     job.CreatedAt,
	})
}

// CancelVideo handles DELETE /v1/videos/{id}
func (h *Handler) CancelVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	acked, err := h.controller.Cancel(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}
	if !acked {
		respondError(w, http.StatusConflict, "Video already finished")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// DownloadVideo handles GET /v1/videos/{id}/download
func (h *Handler) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookupJob(w, r)
	if !ok {
		return
	}
	if job.Status != models.JobStatusCompleted || job.OutputPath == "" {
		respondError(w, http.StatusConflict, "Video is not ready")
		return
	}
	serveFile(w, r, job.OutputPath)
}

// GetThumbnail handles GET /v1/videos/{id}/thumbnail
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookupJob(w, r)
	if !ok {
		return
	}
	if job.ThumbnailPath == "" {
		respondError(w, http.StatusNotFound, "Thumbnail not available")
		return
	}
	serveFile(w, r, job.ThumbnailPath)
}

// ListTemplates handles GET /v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": render.Templates(),
	})
}

// ListVoices handles GET /v1/voices
func (h *Handler) ListVoices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"voices": render.Voices(),
	})
}

// GenerateScript handles POST /v1/scripts/generate
func (h *Handler) GenerateScript(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	script, err := h.scripts.GenerateScript(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate script")
		return
	}

	respondJSON(w, http.StatusOK, script)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parseVideoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) lookupJob(w http.ResponseWriter, r *http.Request) (models.Job, bool) {
	id, ok := parseVideoID(w, r)
	if !ok {
		return models.Job{}, false
	}
	job, err := h.controller.GetStatus(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return models.Job{}, false
	}
	return job, true
}

func serveFile(w http.ResponseWriter, r *http.Request, path string) {
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeFile(w, r, path)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
