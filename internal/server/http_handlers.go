package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/engine"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
	"github.com/sanonone/lightpath/pkg/render"
)

// taskRetention is how long finished tasks stay queryable.
const taskRetention = time.Hour

// registerHTTPHandlers sets up the REST routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /photo", s.handlePhoto)

	mux.HandleFunc("GET /graph", s.handleGraph)
	mux.HandleFunc("POST /graph/click", s.handleClick)
	mux.HandleFunc("POST /graph/undo", s.handleUndo)
	mux.HandleFunc("POST /graph/clear", s.handleClear)
	mux.HandleFunc("POST /graph/start", s.handleStartPoint)

	mux.HandleFunc("GET /lights", s.handleLights)
	mux.HandleFunc("POST /animation/start", s.handleAnimationStart)
	mux.HandleFunc("POST /animation/stop", s.handleAnimationStop)

	mux.HandleFunc("GET /markers", s.handleListMarkers)
	mux.HandleFunc("POST /markers", s.handleAddMarker)
	mux.HandleFunc("PUT /markers/{id}", s.handleUpdateMarker)
	mux.HandleFunc("DELETE /markers/{id}", s.handleDeleteMarker)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handleUpdateSettings)

	mux.HandleFunc("POST /enhance", s.handleEnhance)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /notifications", s.handleNotifications)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// --- Photo ---

// handlePhoto accepts either a raw image body or a multipart form with a "photo" file.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)

	var data []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, err = readFormFile(r, "photo")
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, fmt.Sprintf("could not read photo: %v", err))
		return
	}
	if len(data) == 0 {
		s.writeHTTPError(w, http.StatusBadRequest, "empty photo")
		return
	}

	if err := s.Engine.LoadPhoto(r.Context(), data); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Graph())
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// --- Graph ---

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Graph())
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	res, err := s.Engine.Click(req.X, req.Y)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, res)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	undone, err := s.Engine.Undo()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, UndoResponse{Undone: undone})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Clear(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, StatusResponse{Status: "cleared"})
}

func (s *Server) handleStartPoint(w http.ResponseWriter, r *http.Request) {
	var req StartPointRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.Engine.SetStartPoint(req.PointID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Graph())
}

// --- Lights and animation ---

// handleLights returns the frame at ?phase=, or at the animation's current phase.
func (s *Server) handleLights(w http.ResponseWriter, r *http.Request) {
	phase := s.Engine.Phase()
	if v := r.URL.Query().Get("phase"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "phase must be a number")
			return
		}
		phase = p
	}
	s.writeHTTPResponse(w, http.StatusOK, toLightsResponse(s.Engine.Frame(phase)))
}

func (s *Server) handleAnimationStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.StartAnimation(s.tasks, nil); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, StatusResponse{Status: "running"})
}

func (s *Server) handleAnimationStop(w http.ResponseWriter, r *http.Request) {
	s.Engine.StopAnimation()
	s.writeHTTPResponse(w, http.StatusOK, StatusResponse{Status: "stopped"})
}

// --- Colour markers ---

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	markers := s.Engine.Markers()
	out := make([]MarkerResponse, len(markers))
	for i, m := range markers {
		out[i] = toMarkerResponse(m)
	}
	s.writeHTTPResponse(w, http.StatusOK, out)
}

func (s *Server) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	var req MarkerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	c, err := palette.ParseHex(req.Color)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}
	m := s.Engine.AddMarker(req.Position, c)
	s.writeHTTPResponse(w, http.StatusCreated, toMarkerResponse(m))
}

func (s *Server) handleUpdateMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := s.markerID(w, r)
	if !ok {
		return
	}
	var req MarkerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	c, err := palette.ParseHex(req.Color)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := s.Engine.UpdateMarker(id, req.Position, c)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, toMarkerResponse(m))
}

func (s *Server) handleDeleteMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := s.markerID(w, r)
	if !ok {
		return
	}
	if err := s.Engine.DeleteMarker(id); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markerID(w http.ResponseWriter, r *http.Request) (palette.MarkerID, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "marker id must be an integer")
		return 0, false
	}
	return palette.MarkerID(id), true
}

// --- Settings ---

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req engine.SettingsUpdate
	if !s.decodeJSON(w, r, &req) {
		return
	}
	settings, err := s.Engine.UpdateSettings(req)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, settings)
}

// --- Enhancement ---

// handleEnhance starts an enhancement task and returns its id immediately.
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if !s.Engine.HasPhoto() {
		s.writeEngineError(w, engine.ErrNoPhoto)
		return
	}

	s.taskManager.Prune(taskRetention)
	task := s.taskManager.NewTask()

	go func() {
		task.SetStatus(TaskStatusRunning)
		task.SetProgress("sending image to the enhancement provider")

		res, err := s.Engine.Enhance(s.tasks)
		if err != nil {
			slog.Warn("[Server] enhancement task failed", "task_id", task.ID, "error", err)
			task.SetError(err)
			return
		}
		out := EnhanceResult{Enhanced: res.Enhanced}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		task.SetProgress("")
		task.Complete(out)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, EnhanceResponse{TaskID: task.ID})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.taskManager.GetTask(r.PathValue("id"))
	if !ok {
		s.writeHTTPError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, enhanced, err := s.Engine.Download()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	contentType := http.DetectContentType(data)
	name := "lightpath.jpg"
	if enhanced {
		name = "lightpath-enhanced" + extensionFor(contentType)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("X-Lightpath-Enhanced", strconv.FormatBool(enhanced))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Engine.Reset()
	s.writeHTTPResponse(w, http.StatusOK, StatusResponse{Status: "reset"})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notes := s.Engine.Notifications()
	if notes == nil {
		notes = []engine.Notification{}
	}
	s.writeHTTPResponse(w, http.StatusOK, NotificationsResponse{Notifications: notes})
}

// --- Helpers for HTTP responses ---

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

// writeEngineError maps session errors to status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, graph.ErrPointNotFound),
		errors.Is(err, graph.ErrSplineNotFound),
		errors.Is(err, engine.ErrMarkerNotFound),
		errors.Is(err, engine.ErrNothingToDownload):
		status = http.StatusNotFound
	case errors.Is(err, graph.ErrLocked),
		errors.Is(err, engine.ErrNoPhoto),
		errors.Is(err, engine.ErrEnhancing),
		errors.Is(err, graph.ErrPointInUse):
		status = http.StatusConflict
	case errors.Is(err, graph.ErrNotEndpoint),
		errors.Is(err, graph.ErrEmptySpline),
		errors.Is(err, engine.ErrOutOfCanvas):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, render.ErrDecode):
		status = http.StatusBadRequest
	case errors.Is(err, animation.ErrRunning):
		status = http.StatusConflict
	}
	s.writeHTTPError(w, status, err.Error())
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
