package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/baiirun/reqtrack/internal/model"
)

//go:embed templates/*
var templateFS embed.FS

// Priorities offered by the forms and the priority filter.
var Priorities = []string{"High", "Medium", "Low"}

var funcMap = template.FuncMap{
	"count": func(counts map[model.Status]int, s model.Status) int {
		return counts[s]
	},
	"statusClass": func(s model.Status) string {
		return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(model.TimestampLayout)
	},
}

func parseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))
}

// indexPage is the data rendered by index.html.
type indexPage struct {
	Listing    *model.Listing
	Filter     model.Filter
	Statuses   []model.Status
	Priorities []string
	Notice     string
	Level      string
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		loggerFrom(r.Context()).WithError(err).Error("failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
