package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("progress", validProgress); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("status", validStatus); err != nil {
		panic(err)
	}
	return v
}

// validProgress accepts blank (treated as 0) or an integer in [0, 100].
func validProgress(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 100
}

func validStatus(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

// requirementRules mirrors RequirementInput with the validation tags.
// Field order decides which error wins when several rules fail.
type requirementRules struct {
	Title    string `validate:"required"`
	Progress string `validate:"progress"`
	Status   string `validate:"omitempty,status"`
}

// Fields is a validated RequirementInput. Blank text fields are kept blank so
// that callers can decide between defaults (create) and fallback (edit).
type Fields struct {
	Title       string
	Description string
	Status      Status
	Priority    string
	Progress    int
	Unit        string
	Developer   string
}

// Validate normalizes in and checks title, progress and status.
func (in RequirementInput) Validate() (Fields, error) {
	in = in.Normalize()
	rules := requirementRules{Title: in.Title, Progress: in.Progress, Status: in.Status}
	if err := validate.Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Fields{}, ruleError(verrs[0], in)
		}
		return Fields{}, err
	}

	progress := 0
	if in.Progress != "" {
		// Already checked by the progress rule.
		progress, _ = strconv.Atoi(in.Progress)
	}
	return Fields{
		Title:       in.Title,
		Description: in.Description,
		Status:      Status(in.Status),
		Priority:    in.Priority,
		Progress:    progress,
		Unit:        in.Unit,
		Developer:   in.Developer,
	}, nil
}

// WithDefaults fills blank optional fields with the create defaults.
func (f Fields) WithDefaults() Fields {
	if f.Status == "" {
		f.Status = StatusPending
	}
	if f.Priority == "" {
		f.Priority = DefaultPriority
	}
	if f.Unit == "" {
		f.Unit = DefaultUnit
	}
	if f.Developer == "" {
		f.Developer = DefaultDeveloper
	}
	return f
}

func ruleError(fe validator.FieldError, in RequirementInput) *ValidationError {
	switch fe.Field() {
	case "Title":
		return NewValidationError(CodeEmptyTitle, "title is required")
	case "Progress":
		if _, err := strconv.Atoi(in.Progress); err != nil {
			return NewValidationError(CodeBadProgress, "progress must be a number, got %q", in.Progress)
		}
		return NewValidationError(CodeBadProgress, "progress must be between 0 and 100, got %s", in.Progress)
	default:
		return NewValidationError(CodeBadStatus, "invalid status %q", in.Status)
	}
}

// ValidateStatus returns a BadStatus error unless s is one of Statuses.
func ValidateStatus(s Status) error {
	if !s.IsValid() {
		return NewValidationError(CodeBadStatus, "invalid status %q", string(s))
	}
	return nil
}

// ValidateComment rejects blank comment text.
func ValidateComment(text string) error {
	if err := validate.Var(strings.TrimSpace(text), "required"); err != nil {
		return NewValidationError(CodeEmptyComment, "comment is required")
	}
	return nil
}
