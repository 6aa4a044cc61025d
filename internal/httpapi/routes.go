package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"filesched/internal/history"
	"filesched/internal/scheduler"
	"filesched/internal/task"
	logx "filesched/pkg/logx"
)

// Handler builds the route table with middleware applied. Exposed so tests
// can drive the API without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", s.handleScheduleTask)
	mux.HandleFunc("DELETE /tasks/{name}", s.handleRemoveTask)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /logs", s.handleListLogs)

	var h http.Handler = mux
	h = s.withAuth(h)
	h = s.withRateLimit(h)
	h = s.withRequestID(h)
	return h
}

type scheduleRequest struct {
	Interval          int    `json:"interval"`
	Unit              string `json:"unit"`
	Directory         string `json:"directory"`
	TaskType          string `json:"task_type"`
	CompressionFormat string `json:"compression_format,omitempty"`
	InputFormat       string `json:"input_format,omitempty"`
	OutputFormat      string `json:"output_format,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

type taskListResponse struct {
	Message string   `json:"message"`
	Tasks   []string `json:"tasks"`
}

func (s *Server) handleScheduleTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	var req scheduleRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid JSON: " + err.Error()})
		return
	}

	t := task.Task{
		Interval:          req.Interval,
		Unit:              task.Unit(req.Unit),
		Directory:         req.Directory,
		Type:              task.Type(req.TaskType),
		CompressionFormat: req.CompressionFormat,
		InputFormat:       req.InputFormat,
		OutputFormat:      req.OutputFormat,
	}

	name, err := s.sched.Schedule(t)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusCreated, messageResponse{
			Name:    name,
			Message: fmt.Sprintf("Task '%s' scheduled every %d %s.", name, t.Interval, t.Unit),
		})
	case errors.Is(err, scheduler.ErrAlreadyScheduled):
		// Idempotent re-add: informational, no state change.
		s.writeJSON(w, http.StatusOK, messageResponse{
			Name:    name,
			Message: fmt.Sprintf("Task '%s' is already scheduled.", name),
		})
	case errors.Is(err, task.ErrUnsupportedUnit),
		errors.Is(err, task.ErrUnsupportedType),
		errors.Is(err, task.ErrMissingParameter):
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
	default:
		s.log.Error("schedule failed", logx.Err(err))
		s.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.sched.Unschedule(name)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, messageResponse{
			Name:    name,
			Message: fmt.Sprintf("Task '%s' removed.", name),
		})
	case errors.Is(err, scheduler.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, messageResponse{
			Message: fmt.Sprintf("No task found with name '%s'.", name),
		})
	default:
		s.log.Error("unschedule failed", logx.String("task", name), logx.Err(err))
		s.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := s.sched.List()
	resp := taskListResponse{Message: "Scheduled tasks:", Tasks: tasks}
	if len(tasks) == 0 {
		resp.Message = "No tasks scheduled."
		resp.Tasks = []string{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.sink.List(r.Context(), limit)
	if err != nil {
		s.log.Error("history list failed", logx.Err(err))
		s.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		s.log.Error("response encode failed", logx.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
