package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/0xPuncker/production-timeline/internal/board"
	"github.com/0xPuncker/production-timeline/internal/cron"
	"github.com/0xPuncker/production-timeline/internal/drag"
	"github.com/0xPuncker/production-timeline/internal/notifications"
	"github.com/0xPuncker/production-timeline/internal/scheduler"
	"github.com/0xPuncker/production-timeline/pkg/timeaxis"
	"github.com/0xPuncker/production-timeline/pkg/types"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	refreshTimeout  = 30 * time.Second
	defaultSVGWidth = 1200
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	board     *board.Board
	center    *notifications.Center
	Scheduler *cron.Scheduler
	logger    *logrus.Logger
}

func NewHandler(b *board.Board, center *notifications.Center, scheduler *cron.Scheduler, logger *logrus.Logger) *Handler {
	return &Handler{
		board:     b,
		center:    center,
		Scheduler: scheduler,
		logger:    logger,
	}
}

type windowRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type pointerDownRequest struct {
	JobID      string  `json:"job_id"`
	Lane       string  `json:"lane"`
	Mode       string  `json:"mode"`
	X          float64 `json:"x"`
	TrackWidth float64 `json:"track_width"`
}

type pointerMoveRequest struct {
	X float64 `json:"x"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

const (
	reasonEscape      = "escape"
	reasonCaptureLost = "capture-lost"
)

// PersistResult reports a finished drag. Status is "pending" unless the
// caller asked to wait for the server.
type PersistResult struct {
	JobID     string     `json:"job_id,omitempty"`
	Status    string     `json:"status"`
	Span      types.Span `json:"span"`
	Error     string     `json:"error,omitempty"`
	Coalesced bool       `json:"coalesced,omitempty"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.board.Layout())
}

func (h *Handler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	window := types.Window{From: req.From, To: req.To}
	if err := h.board.SetWindow(window); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.board.Window())
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	if err := h.board.Scheduler().Refresh(ctx); err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.board.Layout())
}

func (h *Handler) PointerDown(w http.ResponseWriter, r *http.Request) {
	var req pointerDownRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}
	if req.TrackWidth <= 0 {
		h.handleError(w, fmt.Errorf("%w: track_width must be positive", errBadRequest))
		return
	}

	mode, err := drag.ParseMode(req.Mode)
	if err != nil {
		h.handleError(w, err)
		return
	}

	jobID := req.JobID
	if jobID == "" {
		if req.Lane == "" {
			h.handleError(w, fmt.Errorf("%w: job_id or lane is required", errBadRequest))
			return
		}
		hit, ok := h.board.HitTest(req.Lane, req.X, req.TrackWidth)
		if !ok {
			h.handleError(w, fmt.Errorf("%w: nothing at x=%.1f on lane %s", board.ErrJobNotFound, req.X, req.Lane))
			return
		}
		jobID, mode = hit.JobID, hit.Mode
	}

	if err := h.board.PointerDown(jobID, mode, req.X, req.TrackWidth); err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"mode":   mode,
		"at":     timeaxis.FromPosition(req.X/req.TrackWidth, h.board.Window()),
	})
}

func (h *Handler) PointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerMoveRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	span, err := h.board.PointerMove(req.X)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, span)
}

// PointerUp commits the drag. With ?wait=true the response carries the
// server's verdict instead of returning as soon as the save is queued.
func (h *Handler) PointerUp(w http.ResponseWriter, r *http.Request) {
	done, err := h.board.PointerUp()
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writePersist(w, r, done)
}

func (h *Handler) PointerCancel(w http.ResponseWriter, r *http.Request) {
	req := cancelRequest{Reason: reasonEscape}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			h.handleError(w, err)
			return
		}
	}

	switch req.Reason {
	case "", reasonEscape:
		if err := h.board.Cancel(); err != nil {
			h.handleError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, PersistResult{Status: "cancelled"})
	case reasonCaptureLost:
		done, err := h.board.LostCapture()
		if err != nil {
			h.handleError(w, err)
			return
		}
		if done == nil {
			h.writeJSON(w, http.StatusOK, PersistResult{Status: "cancelled"})
			return
		}
		h.writePersist(w, r, done)
	default:
		h.handleError(w, fmt.Errorf("%w: unknown cancel reason %q", errBadRequest, req.Reason))
	}
}

func (h *Handler) GetTooltip(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	x, errX := queryFloat(r, "x")
	y, errY := queryFloat(r, "y")
	if err := errors.Join(errX, errY); err != nil {
		h.handleError(w, err)
		return
	}

	tip, err := h.board.Hover(jobID, x, y)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tip)
}

func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	pairs, stats := h.board.ConflictStats()
	if pairs == nil {
		pairs = []types.ConflictPair{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"conflicts":   pairs,
		"count":       len(pairs),
		"comparisons": stats.Comparisons,
	})
}

func (h *Handler) GetSVG(w http.ResponseWriter, r *http.Request) {
	width := defaultSVGWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.handleError(w, fmt.Errorf("%w: invalid width %q", errBadRequest, raw))
			return
		}
		width = n
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := h.board.RenderSVG(w, width); err != nil {
		h.logger.Errorf("Failed to render timeline: %v", err)
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	toasts := h.center.List()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": toasts,
		"count":         len(toasts),
	})
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.center.Dismiss(id) {
		h.writeError(w, fmt.Errorf("notification %s not found", id), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.Scheduler.ListJobs()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":        jobs,
		"active_jobs": len(jobs),
		"running":     h.Scheduler.IsRunning(),
	})
}

func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	enabled, description, err := h.Scheduler.GetJobStatus(name)
	if err != nil {
		h.writeError(w, err, http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        name,
		"enabled":     enabled,
		"description": description,
	})
}

func (h *Handler) writePersist(w http.ResponseWriter, r *http.Request, done <-chan scheduler.Outcome) {
	if done == nil {
		// The job vanished mid-drag; nothing was sent.
		h.writeJSON(w, http.StatusOK, PersistResult{Status: "discarded"})
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		h.writeJSON(w, http.StatusAccepted, PersistResult{Status: "pending"})
		return
	}

	select {
	case outcome := <-done:
		result := PersistResult{
			JobID:     outcome.JobID,
			Span:      outcome.Span,
			Status:    "saved",
			Coalesced: outcome.Coalesced,
		}
		switch {
		case outcome.Err != nil:
			result.Status = "failed"
			result.Error = outcome.Err.Error()
		case outcome.Coalesced:
			result.Status = "superseded"
		}
		h.writeJSON(w, http.StatusOK, result)
	case <-r.Context().Done():
		h.writeJSON(w, http.StatusAccepted, PersistResult{Status: "pending"})
	}
}

// handleError maps domain errors onto status codes.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, board.ErrJobNotFound):
		code = http.StatusNotFound
	case errors.Is(err, board.ErrNoSession), errors.Is(err, drag.ErrSessionActive):
		code = http.StatusConflict
	case errors.Is(err, drag.ErrInvalidMode), errors.Is(err, types.ErrInvalidWindow), errors.Is(err, errBadRequest):
		code = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	default:
		var apiErr interface{ ErrorCode() string }
		if errors.As(err, &apiErr) {
			code = http.StatusBadGateway
		}
	}
	h.writeError(w, err, code)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, code int) {
	if code >= http.StatusInternalServerError {
		h.logger.Error(err)
	} else {
		h.logger.Debug(err)
	}
	h.writeJSON(w, code, map[string]string{
		"error": err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorf("Failed to encode response: %v", err)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return v, nil
}
