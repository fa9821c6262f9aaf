package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage/internal/genealogy/service"
	"lineage/internal/genealogy/tree"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
	"lineage/pkg/requestcontext"
)

// maxQueryLength bounds search input.
const maxQueryLength = 200

// Service defines the genealogy operations exposed over HTTP.
type Service interface {
	Reload(ctx context.Context) (tree.Stats, error)
	Overview(ctx context.Context) (*service.Overview, error)
	Person(ctx context.Context, id string) (*service.PersonDetails, error)
	Search(ctx context.Context, query string) (*service.SearchResult, error)
	CreateSession(ctx context.Context) (*service.SessionView, error)
	View(ctx context.Context, sessionID string) (*service.SessionView, error)
	Navigate(ctx context.Context, sessionID, personID string) (*service.SessionView, error)
	Restore(ctx context.Context, sessionID string, path []string) (*service.SessionView, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Handler wires tree, search and navigation endpoints to the genealogy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tree", h.HandleTree)
	r.Get("/persons/{id}", h.HandlePerson)
	r.Get("/search", h.HandleSearch)
	r.Post("/sessions", h.HandleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(sessionContext)
		r.Get("/", h.HandleView)
		r.Delete("/", h.HandleDeleteSession)
		r.Post("/navigate", h.HandleNavigate)
		r.Post("/restore", h.HandleRestore)
	})
}

// RegisterAdmin mounts operator endpoints. Callers guard them with the admin
// token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/reload", h.HandleReload)
}

func sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithSessionID(r.Context(), chi.URLParam(r, "id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleTree handles GET /tree.
func (h *Handler) HandleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	overview, err := h.service.Overview(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to load tree overview", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTreeResponse(overview))
}

// HandlePerson handles GET /persons/{id}.
func (h *Handler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.service.Person(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to load person", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(details))
}

// HandleSearch handles GET /search?q=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	if len(query) > maxQueryLength {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "q must be at most 200 characters"))
		return
	}

	result, err := h.service.Search(ctx, query)
	if err != nil {
		h.fail(ctx, w, "search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSearchResponse(result))
}

// HandleCreateSession handles POST /sessions.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.CreateSession(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to create navigation session", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+view.SessionID)
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(view))
}

// HandleView handles GET /sessions/{id}.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.View(ctx, requestcontext.SessionID(ctx))
	if err != nil {
		h.fail(ctx, w, "failed to load navigation session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(view))
}

// HandleDeleteSession handles DELETE /sessions/{id}.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DeleteSession(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.fail(ctx, w, "failed to delete navigation session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNavigate handles POST /sessions/{id}/navigate.
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[NavigateRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	view, err := h.service.Navigate(ctx, requestcontext.SessionID(ctx), req.PersonID)
	if err != nil {
		h.fail(ctx, w, "navigation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(view))
}

// HandleRestore handles POST /sessions/{id}/restore.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RestoreRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	view, err := h.service.Restore(ctx, requestcontext.SessionID(ctx), req.Path)
	if err != nil {
		h.fail(ctx, w, "restore failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(view))
}

// HandleReload handles POST /admin/reload.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	stats, err := h.service.Reload(ctx)
	if err != nil {
		h.fail(ctx, w, "tree reload failed", err)
		return
	}

	h.logger.InfoContext(ctx, "tree reloaded",
		"request_id", requestcontext.RequestID(ctx),
		"persons", stats.Persons,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, toReloadResponse(stats))
}

// fail logs err at a level matching its code and writes the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable || code == dErrors.CodeBadGateway {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"session_id", requestcontext.SessionID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
