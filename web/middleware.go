package web

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"betbook/models"
)

type contextKey string

const actingUserKey contextKey = "acting_user"

// ActingUser is the resolved identity of the current request: a persisted
// user, a pending guest name awaiting registration, or neither (anonymous).
// It is carried on the request context, never in package state.
type ActingUser struct {
	User        *models.User
	PendingName string
}

func actingUser(r *http.Request) ActingUser {
	if acting, ok := r.Context().Value(actingUserKey).(ActingUser); ok {
		return acting
	}
	return ActingUser{}
}

// withActingUser resolves the session to an ActingUser before the handler
// runs. A binding to a user that no longer exists is dropped.
func (s *Server) withActingUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.session(r)
		acting := ActingUser{PendingName: pendingName(session)}

		if id, ok := boundUserID(session); ok {
			user, err := s.accounts.GetUser(r.Context(), id)
			if err != nil {
				log.WithError(err).WithField("userID", id).Error("failed to resolve session user")
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				clearSession(session)
				s.saveSession(w, r, session)
			}
			acting.User = user
		}

		ctx := context.WithValue(r.Context(), actingUserKey, acting)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}
