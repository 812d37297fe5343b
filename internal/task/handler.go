package task

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/identity"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/task/entity"
)

// Handler exposes the note, todo, dashboard and calendar endpoints. All of
// them expect the acting user in the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type noteResponse struct {
	Message string       `json:"message"`
	Note    *entity.Note `json:"note"`
}

type todoResponse struct {
	Message string       `json:"message"`
	Todo    *entity.Todo `json:"todo"`
}

func actor(r *http.Request) string {
	id, _ := identity.UserID(r.Context())
	return id
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in NoteInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	n, err := h.svc.CreateNote(r.Context(), actor(r), in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, noteResponse{Message: "Note created successfully", Note: n})
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), actor(r))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.GetNote(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteResponse{Message: "Note retrieved successfully", Note: n})
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var in NoteInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	n, err := h.svc.UpdateNote(r.Context(), actor(r), r.PathValue("id"), in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteResponse{Message: "Note updated successfully", Note: n})
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), actor(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Note deleted successfully")
}

func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var in TodoInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	t, err := h.svc.CreateTodo(r.Context(), actor(r), in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, todoResponse{Message: "To-do created successfully", Todo: t})
}

func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.ListTodos(r.Context(), actor(r))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetTodo(r.Context(), actor(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, todoResponse{Message: "To-do retrieved successfully", Todo: t})
}

func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	var in TodoPatch
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	t, err := h.svc.UpdateTodo(r.Context(), actor(r), r.PathValue("id"), in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, todoResponse{Message: "To-do updated successfully", Todo: t})
}

func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTodo(r.Context(), actor(r), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "To-do deleted successfully")
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.Dashboard(r.Context(), actor(r))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "Welcome to your dashboard",
		"calendar_data": days,
	})
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Events(r.Context(), actor(r))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var in EventInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	ev, err := h.svc.AddEvent(r.Context(), actor(r), in)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Event added successfully", "event": ev})
}
