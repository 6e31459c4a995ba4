package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baiirun/reqtrack/internal/model"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(http.StatusOK))
	assert.Equal(t, "3xx", StatusClass(http.StatusSeeOther))
	assert.Equal(t, "4xx", StatusClass(http.StatusNotFound))
	assert.Equal(t, "5xx", StatusClass(http.StatusInternalServerError))
	assert.Equal(t, "unknown", StatusClass(0))
}

func TestMutationResult(t *testing.T) {
	assert.Equal(t, ResultOK, MutationResult(nil))
	assert.Equal(t, ResultInvalid, MutationResult(model.NewValidationError(model.CodeEmptyTitle, "title is required")))
	assert.Equal(t, ResultNotFound, MutationResult(fmt.Errorf("wrapped: %w", &model.NotFoundError{ID: 3})))
	assert.Equal(t, ResultError, MutationResult(errors.New("disk I/O error")))
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveMutation("create", nil)
	m.ObserveMutation("create", nil)
	m.ObserveMutation("update_status", &model.NotFoundError{ID: 1})
	m.ObserveRequest("/", http.StatusOK, 5*time.Millisecond)
	m.ObserveExport("csv")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("create", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("update_status", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("csv")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveMutation("create", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/prometheus", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `reqtrack_store_mutations_total{operation="create",result="ok"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
