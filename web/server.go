package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"

	"betbook/models"
	"betbook/service"
)

// Server holds the handlers of the public site.
type Server struct {
	store      *sessions.CookieStore
	accounts   service.AccountService
	wagers     service.WagerService
	settlement service.SettlementService
	history    service.HistoryService
	adminToken string
}

// NewServer creates the web server over the given services.
func NewServer(sessionSecret, adminToken string, accounts service.AccountService, wagers service.WagerService, settlement service.SettlementService, history service.HistoryService) *Server {
	return &Server{
		store:      newSessionStore(sessionSecret),
		accounts:   accounts,
		wagers:     wagers,
		settlement: settlement,
		history:    history,
		adminToken: adminToken,
	}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Group(func(r chi.Router) {
		r.Use(s.withActingUser)

		r.Get("/", s.handleHome)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/dashboard/wager", s.handlePlaceWager)
		r.Get("/choose-name", s.handleChooseNameForm)
		r.Post("/choose-name", s.handleChooseName)
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
		r.Get("/sign-up", s.handleSignupForm)
		r.Post("/sign-up", s.handleSignup)
		r.Get("/logout", s.handleLogout)
		r.Get("/history", s.handleHistory)
	})

	r.Post("/admin/results", s.handleDeclareResult)

	return r
}

// pageFor assembles the common template payload and drains flashes.
func (s *Server) pageFor(w http.ResponseWriter, r *http.Request) pageData {
	session := s.session(r)
	errs, successes := takeFlashes(session)
	s.saveSession(w, r, session)

	data := pageData{
		Errors:      errs,
		Successes:   successes,
		PendingName: pendingName(session),
	}
	acting := actingUser(r)
	if acting.User != nil {
		data.User = &viewUser{
			ID:         acting.User.ID,
			Username:   acting.User.Username,
			Points:     acting.User.Points,
			Registered: acting.User.IsRegistered(),
		}
	}
	return data
}

func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, key, message, location string) {
	session := s.session(r)
	addFlash(session, key, message)
	s.saveSession(w, r, session)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", s.pageFor(w, r))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	bets, err := s.history.ListActiveBets(r.Context())
	if err != nil {
		log.WithError(err).Error("failed to list active bets")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := s.pageFor(w, r)
	now := time.Now()
	for _, bet := range bets {
		data.Bets = append(data.Bets, dashboardBet{Bet: bet, Occurrence: bet.NextOccurrence(now)})
	}
	s.render(w, r, "dashboard", data)
}

// wagerMessage converts an expected wager failure into a user-facing flash.
// Infrastructure errors return ok=false and are not shown verbatim.
func wagerMessage(err error) (message string, reason string, ok bool) {
	switch {
	case errors.Is(err, service.ErrBetNotFound):
		return "That bet does not exist.", "bet_not_found", true
	case errors.Is(err, service.ErrBetInactive):
		return "That bet is no longer open.", "bet_inactive", true
	case errors.Is(err, service.ErrInvalidOption):
		return "Invalid betting option.", "invalid_option", true
	case errors.Is(err, service.ErrInvalidAmount):
		return "Wager must be a positive number.", "invalid_amount", true
	case errors.Is(err, service.ErrInsufficientBalance):
		return "You do not have enough points to place that bet.", "insufficient_balance", true
	case errors.Is(err, service.ErrConcurrencyConflict):
		return "Your wager collided with another update, please try again.", "conflict", true
	}
	return "", "", false
}

func (s *Server) handlePlaceWager(w http.ResponseWriter, r *http.Request) {
	acting := actingUser(r)
	if acting.User == nil {
		s.flashAndRedirect(w, r, flashError, "You must choose a name first.", "/choose-name")
		return
	}

	betID, err := strconv.ParseInt(r.FormValue("event_id"), 10, 64)
	if err != nil {
		s.flashAndRedirect(w, r, flashError, "Invalid bet.", "/dashboard")
		return
	}
	option := r.FormValue("bet_option")
	amount, err := strconv.ParseInt(r.FormValue("wager_amount"), 10, 64)
	if err != nil {
		wagersRejected.WithLabelValues("invalid_amount").Inc()
		s.flashAndRedirect(w, r, flashError, "Invalid wager amount.", "/dashboard")
		return
	}

	participation, err := s.wagers.PlaceWager(r.Context(), acting.User.ID, betID, option, amount)
	if err != nil {
		if message, reason, ok := wagerMessage(err); ok {
			wagersRejected.WithLabelValues(reason).Inc()
			s.flashAndRedirect(w, r, flashError, message, "/dashboard")
			return
		}
		log.WithError(err).WithFields(log.Fields{
			"userID": acting.User.ID,
			"betID":  betID,
		}).Error("failed to place wager")
		s.flashAndRedirect(w, r, flashError, "An error occurred while placing your bet.", "/dashboard")
		return
	}

	wagersPlaced.Inc()
	newPoints := acting.User.Points - participation.Amount
	s.flashAndRedirect(w, r, flashSuccess,
		"Bet placed! Your new balance is "+strconv.FormatInt(newPoints, 10)+" points.", "/dashboard")
}

func (s *Server) handleChooseNameForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "choose_name", s.pageFor(w, r))
}

func (s *Server) handleChooseName(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")

	user, err := s.accounts.ChooseName(r.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTooShort):
			s.flashAndRedirect(w, r, flashError, "Username must be at least 2 characters.", "/choose-name")
		case errors.Is(err, service.ErrPasswordRequired):
			s.flashAndRedirect(w, r, flashError, "That name belongs to a registered account, please log in.", "/login")
		default:
			log.WithError(err).Error("failed to choose name")
			s.flashAndRedirect(w, r, flashError, "Something went wrong, please try again.", "/choose-name")
		}
		return
	}

	session := s.session(r)
	bindUser(session, user.ID)
	addFlash(session, flashSuccess, "Welcome, "+user.Username+"! You have "+strconv.FormatInt(user.Points, 10)+" points.")
	s.saveSession(w, r, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", s.pageFor(w, r))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := s.accounts.Login(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIncorrectPassword):
			s.flashAndRedirect(w, r, flashError, "Incorrect password, try again.", "/login")
		case errors.Is(err, service.ErrUserNotFound):
			// No registered account behind that name: carry it as a pending
			// guest identity until the visitor signs up.
			session := s.session(r)
			bindPendingName(session, username)
			addFlash(session, flashSuccess, "No account found, continuing as guest. Sign up to keep your name.")
			s.saveSession(w, r, session)
			http.Redirect(w, r, "/sign-up", http.StatusSeeOther)
		default:
			log.WithError(err).Error("failed to log in")
			s.flashAndRedirect(w, r, flashError, "Something went wrong, please try again.", "/login")
		}
		return
	}

	session := s.session(r)
	bindUser(session, user.ID)
	addFlash(session, flashSuccess, "Logged in successfully.")
	s.saveSession(w, r, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", s.pageFor(w, r))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	acting := actingUser(r)

	var email *string
	if v := r.FormValue("email"); v != "" {
		email = &v
	}
	password := r.FormValue("password1")
	confirm := r.FormValue("password2")

	var user *models.User
	var err error
	switch {
	case acting.User != nil && !acting.User.IsRegistered():
		user, err = s.accounts.RegisterGuest(r.Context(), acting.User.ID, email, password, confirm)
	case acting.PendingName != "":
		user, err = s.accounts.RegisterNew(r.Context(), acting.PendingName, email, password, confirm)
	default:
		user, err = s.accounts.RegisterNew(r.Context(), r.FormValue("username"), email, password, confirm)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTooShort):
			s.flashAndRedirect(w, r, flashError, "Username must be at least 2 characters.", "/sign-up")
		case errors.Is(err, service.ErrPasswordTooShort):
			s.flashAndRedirect(w, r, flashError, "Password must be at least 7 characters.", "/sign-up")
		case errors.Is(err, service.ErrPasswordMismatch):
			s.flashAndRedirect(w, r, flashError, "Passwords do not match.", "/sign-up")
		case errors.Is(err, service.ErrUsernameTaken):
			s.flashAndRedirect(w, r, flashError, "That username is already taken.", "/sign-up")
		case errors.Is(err, service.ErrUserNotFound):
			s.flashAndRedirect(w, r, flashError, "Your guest session expired, choose a name again.", "/choose-name")
		default:
			log.WithError(err).Error("failed to sign up")
			s.flashAndRedirect(w, r, flashError, "Something went wrong, please try again.", "/sign-up")
		}
		return
	}

	session := s.session(r)
	bindUser(session, user.ID)
	addFlash(session, flashSuccess, "Account created successfully!")
	s.saveSession(w, r, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	clearSession(session)
	addFlash(session, flashSuccess, "Logged out successfully.")
	s.saveSession(w, r, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	acting := actingUser(r)
	if acting.User == nil {
		s.flashAndRedirect(w, r, flashError, "You must choose a name first.", "/choose-name")
		return
	}

	entries, err := s.history.UserHistory(r.Context(), acting.User.ID)
	if err != nil {
		log.WithError(err).WithField("userID", acting.User.ID).Error("failed to load bet history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := s.pageFor(w, r)
	data.Entries = entries
	s.render(w, r, "history", data)
}

// handleDeclareResult is the token-guarded settlement endpoint; there is no
// admin UI.
func (s *Server) handleDeclareResult(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" || r.Header.Get("X-Admin-Token") != s.adminToken {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	betID, err := strconv.ParseInt(r.FormValue("bet_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid bet_id", http.StatusBadRequest)
		return
	}
	winningOption := r.FormValue("winning_option")

	result, err := s.settlement.DeclareResult(r.Context(), betID, winningOption)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBetNotFound):
			http.Error(w, "bet not found", http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidOption):
			http.Error(w, "option is not part of the bet", http.StatusBadRequest)
		case errors.Is(err, service.ErrResultDeclared):
			http.Error(w, "result already declared", http.StatusConflict)
		default:
			log.WithError(err).WithField("betID", betID).Error("failed to declare result")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"result_id":` + strconv.FormatInt(result.ID, 10) + `}`))
}
