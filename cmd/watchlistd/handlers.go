package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"stocktracker/internal/backend"
	"stocktracker/internal/logger"
	"stocktracker/internal/metrics"
	"stocktracker/internal/store"
	"stocktracker/internal/watchlist"
)

type server struct {
	store store.Store
	log   *logger.Logger
}

type messageResponse struct {
	Message string `json:"message"`
}

// newHandler builds the routes and wraps them in the middleware chain.
func newHandler(st store.Store, log *logger.Logger, timeout time.Duration) http.Handler {
	s := &server{store: st, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/watchlist", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetWatchlist(w, r)
		case http.MethodPost:
			s.handlePostWatchlist(w, r)
		default:
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
	mux.HandleFunc("/register", postOnly(s.handleRegister))
	mux.HandleFunc("/login", postOnly(s.handleLogin))

	return withJSONHeaders(withGzip(instrument(log, recoverPanic(log, withTimeout(timeout, limitBody(mux))))))
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h, ok := s.store.(interface{ Health(ctx context.Context) error }); ok {
		if err := h.Health(r.Context()); err != nil {
			writeMessage(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.log.Errorw("Failed to list watchlist", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handlePostWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := decodeEntries(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Append(r.Context(), entries); err != nil {
		s.log.Errorw("Failed to append watchlist", "error", err, "entries", len(entries))
		writeMessage(w, http.StatusInternalServerError, "failed to save watchlist")
		return
	}
	s.log.Infow("Watchlist appended", "entries", len(entries))
	writeMessage(w, http.StatusOK, "Watchlist updated")
}

// decodeEntries accepts a JSON array of entries or a single entry object.
func decodeEntries(r *http.Request) ([]watchlist.Entry, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	raw = bytes.TrimSpace(raw)

	var entries []watchlist.Entry
	if len(raw) > 0 && raw[0] == '{' {
		var e watchlist.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.New("invalid JSON body")
		}
		entries = []watchlist.Entry{e}
	} else if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	if len(entries) == 0 {
		return nil, errors.New("entries cannot be empty")
	}
	for _, e := range entries {
		if strings.TrimSpace(e.Symbol) == "" {
			return nil, errors.New("symbol cannot be empty")
		}
		if e.Rate.IsNegative() {
			return nil, errors.New("rate cannot be negative")
		}
	}
	return entries, nil
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req backend.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateAccount(req.Email, req.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err := store.Register(r.Context(), s.store, req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrUserExists):
		writeMessage(w, http.StatusConflict, "User already exists")
	case errors.Is(err, store.ErrPasswordTooLong):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Errorw("Failed to register user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Registration failed")
	default:
		s.log.Infow("User registered")
		writeMessage(w, http.StatusCreated, "User registered successfully")
	}
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := store.Authenticate(r.Context(), s.store, req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		s.log.Errorw("Failed to authenticate user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Login failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "name": u.Name})
	}
}

// validateAccount applies the same rules as the client's login form.
func validateAccount(email, password string) error {
	if err := backend.ValidateEmail(email); err != nil {
		return err
	}
	return backend.ValidatePassword(password)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}
