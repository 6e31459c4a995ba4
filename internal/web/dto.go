package web

import (
	"net/url"

	"github.com/go-playground/form"

	"github.com/baiirun/reqtrack/internal/model"
)

// RequirementForm is posted by the add and edit forms.
type RequirementForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Status      string `form:"status"`
	Priority    string `form:"priority"`
	Progress    string `form:"progress"`
	Unit        string `form:"unit"`
	Developer   string `form:"developer"`
}

func (f RequirementForm) ToInput() model.RequirementInput {
	return model.RequirementInput{
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		Priority:    f.Priority,
		Progress:    f.Progress,
		Unit:        f.Unit,
		Developer:   f.Developer,
	}
}

type CommentForm struct {
	Comment string `form:"comment"`
}

type StatusForm struct {
	Status string `form:"status"`
}

// FilterQuery holds the listing filters from the query string.
type FilterQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Unit      string `form:"unit"`
	Developer string `form:"developer"`
}

func (q FilterQuery) ToFilter() model.Filter {
	return model.Filter{
		Search:    q.Search,
		Status:    q.Status,
		Priority:  q.Priority,
		Unit:      q.Unit,
		Developer: q.Developer,
	}.Normalize()
}

// NoticeQuery carries the result banner code across a redirect.
type NoticeQuery struct {
	Notice string `form:"notice"`
}

func newDecoder() *form.Decoder {
	return form.NewDecoder()
}

func decode[T any](d *form.Decoder, values url.Values) (T, error) {
	var v T
	err := d.Decode(&v, values)
	return v, err
}
