package web

import (
	"net/http"

	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
)

const (
	sessionName = "betbook-session"

	sessionKeyUserID      = "user_id"
	sessionKeyPendingName = "pending_name"

	flashError   = "_flash_error"
	flashSuccess = "_flash_success"
)

func newSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// An undecodable cookie still yields a usable fresh session.
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		log.WithError(err).Debug("failed to decode session cookie, starting fresh")
	}
	return session
}

// bindUser points the session at a persisted user and clears any pending
// guest name.
func bindUser(session *sessions.Session, userID int64) {
	session.Values[sessionKeyUserID] = userID
	delete(session.Values, sessionKeyPendingName)
}

// bindPendingName remembers a username that has no persisted user yet.
func bindPendingName(session *sessions.Session, username string) {
	session.Values[sessionKeyPendingName] = username
	delete(session.Values, sessionKeyUserID)
}

func clearSession(session *sessions.Session) {
	delete(session.Values, sessionKeyUserID)
	delete(session.Values, sessionKeyPendingName)
}

func boundUserID(session *sessions.Session) (int64, bool) {
	id, ok := session.Values[sessionKeyUserID].(int64)
	return id, ok
}

func pendingName(session *sessions.Session) string {
	name, _ := session.Values[sessionKeyPendingName].(string)
	return name
}

func addFlash(session *sessions.Session, key, message string) {
	session.AddFlash(message, key)
}

// takeFlashes drains both flash queues; the session must be saved afterwards
// for the drain to stick.
func takeFlashes(session *sessions.Session) (errors, successes []string) {
	for _, f := range session.Flashes(flashError) {
		if msg, ok := f.(string); ok {
			errors = append(errors, msg)
		}
	}
	for _, f := range session.Flashes(flashSuccess) {
		if msg, ok := f.(string); ok {
			successes = append(successes, msg)
		}
	}
	return errors, successes
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		log.WithError(err).Error("failed to save session")
	}
}
