package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"betbook/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages maps a page name to its parsed template set (layout + content).
var pages = func() map[string]*template.Template {
	names := []string{"home", "dashboard", "choose_name", "login", "signup", "history"}
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		parsed[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html", fmt.Sprintf("templates/%s.html", name)))
	}
	return parsed
}()

// viewUser is the acting user as templates see it.
type viewUser struct {
	ID         int64
	Username   string
	Points     int64
	Registered bool
}

// dashboardBet pairs a bet with its computed next occurrence.
type dashboardBet struct {
	Bet        *models.Bet
	Occurrence time.Time
}

// pageData is the payload every page template receives.
type pageData struct {
	User        *viewUser
	Errors      []string
	Successes   []string
	PendingName string
	Bets        []dashboardBet
	Entries     []*models.ParticipationEntry
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	tmpl, ok := pages[page]
	if !ok {
		log.WithField("page", page).Error("unknown template")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.WithError(err).WithField("page", page).Error("failed to render template")
	}
}
