// Package devserver serves the recipe API from memory for local development
// and end-to-end tests.
//
// Cursors are opaque base64 offsets. A failure injector can reject every Nth
// write, and the terminal-cursor quirk makes the last page of every list
// carry a cursor alongside hasMore false, the way some production backends
// do.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/five82/potluck/internal/api"
)

// Options tune the server's behaviour.
type Options struct {
	// FailEvery rejects every Nth action or field update with 503.
	FailEvery int
	// TerminalCursor makes last pages carry a cursor with hasMore false.
	TerminalCursor bool
	// Latency delays every response.
	Latency time.Duration
	Logger  *log.Logger
}

// Server is an in-memory implementation of the API.
type Server struct {
	mu     sync.Mutex
	data   Data
	opts   Options
	writes int
	logger *log.Logger
	router *mux.Router
}

// New builds a Server over data.
func New(data Data, opts Options) *Server {
	s := &Server{data: data, opts: opts, logger: opts.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.data.Comments == nil {
		s.data.Comments = make(map[string][]api.Comment)
	}
	if s.data.Logs == nil {
		s.data.Logs = make(map[string][]api.CookingLog)
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDs, s.delay)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/feed", s.handleFeed).Methods(http.MethodGet)
	r.HandleFunc("/api/recipes/{id}/comments", s.handleComments).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}/recipes", s.handleUserRecipes).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id}/cooking-logs", s.handleCookingLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/search/recipes", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/recipes", s.handleAdminRecipes).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/users", s.handleAdminUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/{kind}/{id}", s.handleFieldUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/api/{kind}/{id}/actions", s.handleAction).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Printf("devserver listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// SetFailEvery changes the failure injector; 0 disables it.
func (s *Server) SetFailEvery(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.FailEvery = n
	s.writes = 0
}

// Recipe returns the stored recipe with id.
func (s *Server) Recipe(id string) (api.Recipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.data.Recipes, id); i >= 0 {
		return s.data.Recipes[i], true
	}
	return api.Recipe{}, false
}

// User returns the stored user with id.
func (s *Server) User(id string) (api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.data.Users, id); i >= 0 {
		return s.data.Users[i], true
	}
	return api.User{}, false
}

// AddRecipe inserts r at the top of every list, as a newly published recipe.
func (s *Server) AddRecipe(r api.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Recipes = slices.Insert(s.data.Recipes, 0, r)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := filter(s.data.Recipes, func(rc api.Recipe) bool { return rc.Status == api.StatusPublished })
	s.mu.Unlock()
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	known := indexOf(s.data.Recipes, id) >= 0
	items := slices.Clone(s.data.Comments[id])
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "recipe not found")
		return
	}
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleUserRecipes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	known := indexOf(s.data.Users, id) >= 0
	items := filter(s.data.Recipes, func(rc api.Recipe) bool {
		return rc.Author.ID == id && rc.Status == api.StatusPublished
	})
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleCookingLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	known := indexOf(s.data.Users, id) >= 0
	items := slices.Clone(s.data.Logs[id])
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	var items []api.Recipe
	if q != "" {
		s.mu.Lock()
		items = filter(s.data.Recipes, func(rc api.Recipe) bool {
			return rc.Status == api.StatusPublished &&
				(strings.Contains(strings.ToLower(rc.Title), q) || strings.Contains(strings.ToLower(rc.Summary), q))
		})
		s.mu.Unlock()
	}
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleAdminRecipes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.data.Recipes)
	s.mu.Unlock()
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := slices.Clone(s.data.Users)
	s.mu.Unlock()
	writePage(w, r, items, s.terminalCursor())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req api.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injectFailureLocked() {
		writeError(w, http.StatusServiceUnavailable, "injected failure")
		return
	}
	status, msg := s.applyActionLocked(vars["kind"], vars["id"], req.Action)
	if status != http.StatusNoContent {
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyActionLocked(kind, id, action string) (int, string) {
	switch kind {
	case api.KindRecipes:
		i := indexOf(s.data.Recipes, id)
		if i < 0 {
			return http.StatusNotFound, "recipe not found"
		}
		rc := &s.data.Recipes[i]
		switch action {
		case api.ActionLike, api.ActionUnlike:
			toggle(&rc.IsLiked, &rc.LikeCount, action == api.ActionLike)
		case api.ActionSave, api.ActionUnsave:
			toggle(&rc.IsSaved, &rc.SaveCount, action == api.ActionSave)
		default:
			return http.StatusBadRequest, "unsupported action"
		}
	case api.KindComments:
		c := s.findCommentLocked(id)
		if c == nil {
			return http.StatusNotFound, "comment not found"
		}
		if action != api.ActionLike && action != api.ActionUnlike {
			return http.StatusBadRequest, "unsupported action"
		}
		toggle(&c.IsLiked, &c.LikeCount, action == api.ActionLike)
	case api.KindCookingLogs:
		l := s.findLogLocked(id)
		if l == nil {
			return http.StatusNotFound, "cooking log not found"
		}
		if action != api.ActionLike && action != api.ActionUnlike {
			return http.StatusBadRequest, "unsupported action"
		}
		toggle(&l.IsLiked, &l.LikeCount, action == api.ActionLike)
	case api.KindUsers:
		i := indexOf(s.data.Users, id)
		if i < 0 {
			return http.StatusNotFound, "user not found"
		}
		if action != api.ActionFollow && action != api.ActionUnfollow {
			return http.StatusBadRequest, "unsupported action"
		}
		u := &s.data.Users[i]
		toggle(&u.IsFollowing, &u.FollowerCount, action == api.ActionFollow)
	default:
		return http.StatusNotFound, "unknown kind"
	}
	return http.StatusNoContent, ""
}

func (s *Server) handleFieldUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req api.FieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	value := strings.ToLower(strings.TrimSpace(req.Value))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.injectFailureLocked() {
		writeError(w, http.StatusServiceUnavailable, "injected failure")
		return
	}

	switch vars["kind"] {
	case api.KindRecipes:
		i := indexOf(s.data.Recipes, vars["id"])
		if i < 0 {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		if req.Field != "status" {
			writeError(w, http.StatusBadRequest, "unsupported field")
			return
		}
		if !slices.Contains(api.ModerationStatuses, value) {
			writeError(w, http.StatusUnprocessableEntity, "invalid status")
			return
		}
		s.data.Recipes[i].Status = value
		writeJSON(w, http.StatusOK, s.data.Recipes[i])
	case api.KindUsers:
		i := indexOf(s.data.Users, vars["id"])
		if i < 0 {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if req.Field != "role" {
			writeError(w, http.StatusBadRequest, "unsupported field")
			return
		}
		if !slices.Contains(api.Roles, value) {
			writeError(w, http.StatusUnprocessableEntity, "invalid role")
			return
		}
		s.data.Users[i].Role = value
		writeJSON(w, http.StatusOK, s.data.Users[i])
	default:
		writeError(w, http.StatusNotFound, "unknown kind")
	}
}

func (s *Server) injectFailureLocked() bool {
	if s.opts.FailEvery <= 0 {
		return false
	}
	s.writes++
	return s.writes%s.opts.FailEvery == 0
}

func (s *Server) findCommentLocked(id string) *api.Comment {
	for rid, list := range s.data.Comments {
		if i := indexOf(list, id); i >= 0 {
			return &s.data.Comments[rid][i]
		}
	}
	return nil
}

func (s *Server) findLogLocked(id string) *api.CookingLog {
	for uid, list := range s.data.Logs {
		if i := indexOf(list, id); i >= 0 {
			return &s.data.Logs[uid][i]
		}
	}
	return nil
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, terminalCursor bool) {
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}
	page, err := paginate(items, r.URL.Query().Get("cursor"), size, terminalCursor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) terminalCursor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.TerminalCursor
}

func (s *Server) requestIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s request=%s took=%s", r.Method, r.URL.RequestURI(), id, time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := s.opts.Latency; d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func toggle(flag *bool, count *int, on bool) {
	if *flag == on {
		return
	}
	*flag = on
	if on {
		*count++
	} else if *count > 0 {
		*count--
	}
}

func indexOf[T interface{ EntityID() string }](items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return it.EntityID() == id })
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
