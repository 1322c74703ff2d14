// Package server serves interactive org charts over HTTP.
//
// Every visitor gets a session holding a live chart. The rendered SVG
// carries the pan and zoom viewer; its controls post back to the session
// and the page reloads the new state. Clients that want the animation
// subscribe to the session's frame stream (server-sent events).
//
// # Routes
//
//	GET    /                          new session, redirect to its chart
//	POST   /sessions                  new session, returns {"id": ...}
//	GET    /s/{id}/chart.{format}     svg, json, dot or graphviz
//	GET    /s/{id}/frames             SSE stream of JSON frames
//	POST   /s/{id}/toggle?role=&id=   press a node's control
//	POST   /s/{id}/click?role=&id=    click a node
//	POST   /s/{id}/expand-all
//	POST   /s/{id}/collapse-all
//	DELETE /s/{id}
//	GET    /healthz
//	GET    /metrics                   when a metrics handler is set
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/pipeline"
	"github.com/matzehuels/orgchart/pkg/session"
)

// Config configures a Server.
type Config struct {
	// Options are the chart and render options of new sessions. Formats is
	// ignored; each request names its format.
	Options pipeline.Options
	Store   *session.MemoryStore
	Logger  *log.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server holds the current tree and the sessions built from it.
type Server struct {
	mu      sync.RWMutex
	tree    *orgtree.Entity
	opts    pipeline.Options
	store   *session.MemoryStore
	logger  *log.Logger
	metrics http.Handler
}

// New creates a server for tree.
func New(tree *orgtree.Entity, cfg Config) (*Server, error) {
	if tree == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "tree has no root")
	}
	if cfg.Store == nil {
		cfg.Store = session.NewMemoryStore(session.DefaultTTL, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	opts := cfg.Options
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Viewer = true
	if opts.Logger == nil {
		opts.Logger = cfg.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	// Validate the tree once so bad input fails at startup.
	if _, err := orgtree.NewModel(tree); err != nil {
		return nil, err
	}
	return &Server{
		tree:    tree,
		opts:    opts,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Post("/sessions", s.handleCreate)

	r.Route("/s/{session}", func(r chi.Router) {
		r.Delete("/", s.handleDelete)
		r.Get("/chart.{format}", s.handleChart)
		r.Get("/frames", s.handleFrames)
		r.Post("/toggle", s.handleToggle)
		r.Post("/click", s.handleClick)
		r.Post("/expand-all", s.handleAll(chart.OpExpandAll))
		r.Post("/collapse-all", s.handleAll(chart.OpCollapseAll))
	})
	return r
}

// Reload replaces the tree and rebuilds every session's chart. An invalid
// tree is rejected and the current one is kept.
func (s *Server) Reload(tree *orgtree.Entity) error {
	if _, err := orgtree.NewModel(tree); err != nil {
		return err
	}
	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()

	var firstErr error
	s.store.Each(func(sess *session.Session) {
		c, err := s.newChart()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		sess.Replace(c)
	})
	s.logger.Info("reloaded tree", "sessions", s.store.Len())
	return firstErr
}

// Tree returns the current tree.
func (s *Server) Tree() *orgtree.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *Server) newChart() (*chart.Chart, error) {
	c, err := pipeline.Draw(s.Tree(), s.opts, s.store.Clock())
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Server) newSession(ctx context.Context) (*session.Session, error) {
	c, err := s.newChart()
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, c)
}

func (s *Server) session(r *http.Request) (*session.Session, error) {
	return s.store.Get(r.Context(), chi.URLParam(r, "session"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.newSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/s/"+sess.ID+"/chart.svg", http.StatusSeeOther)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.newSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "session")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatJSON:     "application/json",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatGraphviz: "image/svg+xml",
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := errors.ValidateFormat(format, pipeline.ValidFormats); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.opts
	opts.Formats = []string{format}
	opts.Endpoint = "/s/" + sess.ID

	// A page load shows where the last command ends, not a mid-run frame.
	// Animated clients follow /frames instead.
	var artifacts map[string][]byte
	sess.View(func(c *chart.Chart) {
		c.Settle()
		artifacts, err = pipeline.RenderChart(r.Context(), c, opts)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(artifacts[format])
}

func nodeParams(r *http.Request) (orgtree.Role, string, error) {
	role, err := orgtree.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		return role, "", err
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		return role, "", errors.New(errors.ErrCodeInvalidInput, "missing node id")
	}
	return role, id, nil
}

type stateResponse struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	State string `json:"state"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	role, id, err := nodeParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var st orgtree.State
	err = sess.Do(func(c *chart.Chart) error {
		st, err = c.PressButton(role, id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{ID: id, Role: role.String(), State: st.String()})
}

type clickResponse struct {
	ID     string `json:"id"`
	Notice string `json:"notice"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	role, id, err := nodeParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var notice string
	err = sess.Do(func(c *chart.Chart) error {
		if err := c.Click(chart.Event{Type: "click"}, role, id); err != nil {
			return err
		}
		notice = c.LastNotice()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{ID: id, Notice: notice})
}

func (s *Server) handleAll(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		err = sess.Do(func(c *chart.Chart) error {
			if op == chart.OpExpandAll {
				return c.ExpandAllNodes()
			}
			return c.CollapseAllNodes()
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
