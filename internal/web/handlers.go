package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/baiirun/reqtrack/internal/export"
	"github.com/baiirun/reqtrack/internal/model"
)

const (
	levelSuccess = "success"
	levelError   = "error"
)

// Notice codes travel in the redirect query. Only known codes are shown.
const (
	noticeCreated      = "created"
	noticeCommentAdded = "comment_added"
	noticeUpdated      = "updated"
	noticeNotFound     = "not_found"
	noticeFailed       = "failed"
	noticeInvalidForm  = "invalid_form"
)

type noticeText struct {
	Text  string
	Level string
}

var notices = map[string]noticeText{
	noticeCreated:      {"Requirement created.", levelSuccess},
	noticeCommentAdded: {"Comment added.", levelSuccess},
	noticeUpdated:      {"Requirement updated.", levelSuccess},
	noticeNotFound:     {"Requirement not found.", levelError},
	noticeFailed:       {"Something went wrong. Please try again.", levelError},
	noticeInvalidForm:  {"Invalid form.", levelError},

	string(model.CodeEmptyTitle):   {"Title is required.", levelError},
	string(model.CodeBadProgress):  {"Progress must be a whole number from 0 to 100.", levelError},
	string(model.CodeBadStatus):    {"Invalid status.", levelError},
	string(model.CodeEmptyComment): {"Comment is required.", levelError},
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fq, err := decode[FilterQuery](s.decoder, query)
	if err != nil {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}
	nq, err := decode[NoticeQuery](s.decoder, query)
	if err != nil {
		http.Error(w, "invalid query", http.StatusBadRequest)
		return
	}

	filter := fq.ToFilter()
	listing, err := s.store.List(r.Context(), filter)
	if err != nil {
		loggerFrom(r.Context()).WithError(err).Error("failed to list requirements")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	loggerFrom(r.Context()).WithFields(logrus.Fields{
		"filter": filter,
		"found":  len(listing.Requirements),
	}).Debug("listed requirements")

	banner := notices[nq.Notice]
	s.renderTemplate(w, r, "index.html", indexPage{
		Listing:    listing,
		Filter:     filter,
		Statuses:   model.Statuses,
		Priorities: Priorities,
		Notice:     banner.Text,
		Level:      banner.Level,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	in, ok := s.requirementForm(w, r, "added")
	if !ok {
		return
	}
	id, err := s.store.Create(r.Context(), in)
	s.metrics.ObserveMutation("create", err)
	if err != nil {
		s.redirectWithError(w, r, err, "added")
		return
	}
	loggerFrom(r.Context()).WithField("id", id).Info("requirement created")
	redirectWithNotice(w, r, noticeCreated, "added")
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, noticeInvalidForm, "added")
		return
	}
	cf, err := decode[CommentForm](s.decoder, r.PostForm)
	if err != nil {
		redirectWithNotice(w, r, noticeInvalidForm, "added")
		return
	}

	err = s.store.AddComment(r.Context(), id, cf.Comment)
	s.metrics.ObserveMutation("add_comment", err)
	if err != nil {
		s.redirectWithError(w, r, err, "added")
		return
	}
	redirectWithNotice(w, r, noticeCommentAdded, "added")
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context())
	id, ok := pathID(r)
	if !ok {
		_ = writeStatusError(w, http.StatusNotFound, notices[noticeNotFound].Text)
		return
	}
	if err := r.ParseForm(); err != nil {
		_ = writeStatusError(w, http.StatusBadRequest, "invalid form")
		return
	}
	sf, err := decode[StatusForm](s.decoder, r.PostForm)
	if err != nil {
		_ = writeStatusError(w, http.StatusBadRequest, "invalid form")
		return
	}

	res, err := s.store.UpdateStatus(r.Context(), id, model.Status(sf.Status))
	s.metrics.ObserveMutation("update_status", err)
	if err != nil {
		if ve, ok := model.IsValidation(err); ok {
			logger.WithField("id", id).WithField("status", sf.Status).Warn("invalid status")
			_ = writeStatusError(w, http.StatusBadRequest, ve.Message)
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			logger.WithField("id", id).Warn("requirement not found")
			_ = writeStatusError(w, http.StatusNotFound, notices[noticeNotFound].Text)
			return
		}
		logger.WithError(err).Error("failed to update status")
		_ = writeStatusError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.WithFields(logrus.Fields{"id": id, "status": res.NewStatus}).Info("status updated")
	_ = WriteJSON(w, http.StatusOK, &StatusResponse{Success: true, NewStatus: string(res.NewStatus)})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	anchor := fmt.Sprintf("edit-form-%d", id)
	in, ok := s.requirementForm(w, r, anchor)
	if !ok {
		return
	}

	err := s.store.Edit(r.Context(), id, in)
	s.metrics.ObserveMutation("edit", err)
	if err != nil {
		s.redirectWithError(w, r, err, anchor)
		return
	}
	redirectWithNotice(w, r, noticeUpdated, anchor)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "csv", export.CSVContentType, "requirements.csv", export.WriteCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "xlsx", export.XLSXContentType, "requirements.xlsx", export.WriteXLSX)
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, format, contentType, filename string,
	write func(io.Writer, []model.ExportRow) error) {
	logger := loggerFrom(r.Context())
	rows, err := s.store.ExportRows(r.Context())
	if err != nil {
		logger.WithError(err).Error("failed to load export rows")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		logger.WithError(err).WithField("format", format).Error("failed to write export")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.metrics.ObserveExport(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.PingContext(ctx); err != nil {
		loggerFrom(r.Context()).WithError(err).Error("health check failed")
		_ = WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requirementForm decodes the add/edit form. On failure it has already
// redirected with an error notice.
func (s *Server) requirementForm(w http.ResponseWriter, r *http.Request, anchor string) (model.RequirementInput, bool) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, noticeInvalidForm, anchor)
		return model.RequirementInput{}, false
	}
	rf, err := decode[RequirementForm](s.decoder, r.PostForm)
	if err != nil {
		redirectWithNotice(w, r, noticeInvalidForm, anchor)
		return model.RequirementInput{}, false
	}
	return rf.ToInput(), true
}

// redirectWithError maps a store error to an error notice code. Unexpected errors
// are logged and shown generically.
func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, err error, anchor string) {
	if ve, ok := model.IsValidation(err); ok {
		redirectWithNotice(w, r, string(ve.Code), anchor)
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		redirectWithNotice(w, r, noticeNotFound, anchor)
		return
	}
	loggerFrom(r.Context()).WithError(err).Error("request failed")
	redirectWithNotice(w, r, noticeFailed, anchor)
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, code, anchor string) {
	q := url.Values{}
	q.Set("notice", code)
	target := "/?" + q.Encode()
	if anchor != "" {
		target += "#" + anchor
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
