// Package rpc exposes the schedule backend over JSON-RPC 2.0 and provides the
// reminder gateway that queries it.
package rpc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/reminder"
	"peptrack_reminders/internal/domain/schedule"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/sirupsen/logrus"
)

// Method names.
const (
	MethodPing               = "system.ping"
	MethodPendingReminders   = "reminders.pending"
	MethodListSchedules      = "schedules.list"
	MethodAddSchedule        = "schedules.add"
	MethodRemoveSchedule     = "schedules.remove"
	MethodSetScheduleEnabled = "schedules.setEnabled"
)

// Path is where the bridge is mounted.
const Path = "/rpc"

// Custom JSON-RPC error codes.
const (
	codeInvalidParams    = jrpc2.Code(-32602)
	codeScheduleNotFound = jrpc2.Code(-32004)
	codeBackendFailure   = jrpc2.Code(-32010)
)

// Backend is what the RPC server needs from the schedule service.
type Backend interface {
	reminder.Gateway
	ListSchedules(ctx context.Context) ([]*schedule.DoseSchedule, error)
	AddSchedule(ctx context.Context, in app.NewSchedule) (*schedule.DoseSchedule, error)
	RemoveSchedule(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) (*schedule.DoseSchedule, error)
}

// PendingResult is the response for reminders.pending.
type PendingResult struct {
	Reminders []reminder.Occurrence `json:"reminders"`
}

// ScheduleListResult is the response for schedules.list.
type ScheduleListResult struct {
	Schedules []*schedule.DoseSchedule `json:"schedules"`
}

// IDParam is a common input with just a schedule id.
type IDParam struct {
	ID string `json:"id"`
}

// SetEnabledParams is the input for schedules.setEnabled.
type SetEnabledParams struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// PingResult is the response for system.ping.
type PingResult struct {
	OK   bool      `json:"ok"`
	Time time.Time `json:"time"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// Server serves the backend over HTTP.
type Server struct {
	bridge  jhttp.Bridge
	backend Backend
	secret  string
	logger  *logrus.Entry
	httpSrv *http.Server
}

// NewServer builds the method table. An empty secret disables authentication.
func NewServer(backend Backend, secret string, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		backend: backend,
		secret:  secret,
		logger:  logger.WithField("component", "rpc_server"),
	}
	methods := handler.Map{
		MethodPing:               handler.New(s.ping),
		MethodPendingReminders:   handler.New(s.pendingReminders),
		MethodListSchedules:      handler.New(s.listSchedules),
		MethodAddSchedule:        handler.New(s.addSchedule),
		MethodRemoveSchedule:     handler.New(s.removeSchedule),
		MethodSetScheduleEnabled: handler.New(s.setScheduleEnabled),
	}
	s.bridge = jhttp.NewBridge(methods, nil)
	return s
}

// Handler returns the HTTP handler, with token checking when a secret is set.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	var h http.Handler = s.bridge
	if s.secret != "" {
		h = requireToken(s.secret, h)
	}
	mux.Handle(Path, h)
	return mux
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.WithField("addr", l.Addr().String()).Info("RPC server listening")
	err := s.httpSrv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on addr and serves.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops the HTTP server and closes the bridge.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	if cerr := s.bridge.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) ping(_ context.Context) (*PingResult, error) {
	return &PingResult{OK: true, Time: time.Now().UTC()}, nil
}

func (s *Server) pendingReminders(ctx context.Context) (*PendingResult, error) {
	due, err := s.backend.FetchDue(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to compute pending reminders")
		return nil, &jrpc2.Error{Code: codeBackendFailure, Message: err.Error()}
	}
	return &PendingResult{Reminders: due}, nil
}

func (s *Server) listSchedules(ctx context.Context) (*ScheduleListResult, error) {
	list, err := s.backend.ListSchedules(ctx)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeBackendFailure, Message: err.Error()}
	}
	return &ScheduleListResult{Schedules: list}, nil
}

func (s *Server) addSchedule(ctx context.Context, p *app.NewSchedule) (*schedule.DoseSchedule, error) {
	if p == nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing schedule params"}
	}
	created, err := s.backend.AddSchedule(ctx, *p)
	if err != nil {
		return nil, toRPCError(err)
	}
	return created, nil
}

func (s *Server) removeSchedule(ctx context.Context, p *IDParam) (*EmptyResult, error) {
	if p == nil || p.ID == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: id"}
	}
	if err := s.backend.RemoveSchedule(ctx, p.ID); err != nil {
		return nil, toRPCError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) setScheduleEnabled(ctx context.Context, p *SetEnabledParams) (*schedule.DoseSchedule, error) {
	if p == nil || p.ID == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: id"}
	}
	updated, err := s.backend.SetEnabled(ctx, p.ID, p.Enabled)
	if err != nil {
		return nil, toRPCError(err)
	}
	return updated, nil
}

func toRPCError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound):
		return &jrpc2.Error{Code: codeScheduleNotFound, Message: err.Error()}
	case errors.Is(err, schedule.ErrInvalidTimeOfDay),
		errors.Is(err, schedule.ErrInvalidDaysOfWeek),
		errors.Is(err, schedule.ErrMissingProtocol),
		errors.Is(err, schedule.ErrInvalidAmount):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &jrpc2.Error{Code: codeBackendFailure, Message: err.Error()}
	}
}

// requireToken wraps an http.Handler with Bearer token authentication and
// answers failures with a JSON-RPC error body.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validToken(secret, r.Header.Get("Authorization")) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    -32600,
					"message": "Unauthorized",
				},
				"id": nil,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validToken(secret, authHeader string) bool {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
