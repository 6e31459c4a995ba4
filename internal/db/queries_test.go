package db

import (
	"context"
	"testing"

	"github.com/baiirun/reqtrack/internal/model"
)

func titles(reqs []model.Requirement) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Title)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestList_Empty(t *testing.T) {
	db := setupTestDB(t)

	listing, err := db.List(context.Background(), model.Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(listing.Requirements) != 0 {
		t.Errorf("expected no requirements, got %d", len(listing.Requirements))
	}
	if listing.Total() != 0 {
		t.Errorf("total = %d", listing.Total())
	}
}

func TestList_OrderAndComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := createTestRequirement(t, db, model.RequirementInput{Title: "A"})
	createTestRequirement(t, db, model.RequirementInput{Title: "B"})
	c := createTestRequirement(t, db, model.RequirementInput{Title: "C"})
	if err := db.AddComment(ctx, c, "on C"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if err := db.AddComment(ctx, a, "on A"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	listing, err := db.List(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if got := titles(listing.Requirements); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("order = %v", got)
	}
	if len(listing.Requirements[0].Comments) != 1 || listing.Requirements[0].Comments[0].Text != "on A" {
		t.Errorf("A comments = %+v", listing.Requirements[0].Comments)
	}
	if len(listing.Requirements[1].Comments) != 0 {
		t.Errorf("B should have no comments")
	}
	if len(listing.Requirements[2].Comments) != 1 {
		t.Errorf("C comments = %+v", listing.Requirements[2].Comments)
	}
}

func TestList_MoreRequirementsThanBindLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// SQLite caps a statement at 32766 bind variables.
	const n = 33000
	_, err := db.ExecContext(ctx, `
		WITH RECURSIVE seq(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM seq WHERE i < ?)
		INSERT INTO requirements (title, unit) SELECT 'req ' || i, CASE WHEN i % 2 = 0 THEN 'Other' ELSE 'Imagine' END FROM seq`, n)
	if err != nil {
		t.Fatalf("failed to seed requirements: %v", err)
	}
	if err := db.AddComment(ctx, 1, "first"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if err := db.AddComment(ctx, n, "last"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	listing, err := db.List(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(listing.Requirements) != n {
		t.Fatalf("expected %d requirements, got %d", n, len(listing.Requirements))
	}
	if got := listing.Requirements[0].Comments; len(got) != 1 || got[0].Text != "first" {
		t.Errorf("unexpected comments on first requirement: %+v", got)
	}
	if got := listing.Requirements[n-1].Comments; len(got) != 1 || got[0].Text != "last" {
		t.Errorf("unexpected comments on last requirement: %+v", got)
	}

	filtered, err := db.List(ctx, model.Filter{Unit: "Other"})
	if err != nil {
		t.Fatalf("failed to list filtered: %v", err)
	}
	if len(filtered.Requirements) != n/2 {
		t.Fatalf("expected %d requirements, got %d", n/2, len(filtered.Requirements))
	}
	last := filtered.Requirements[len(filtered.Requirements)-1]
	if last.ID != n || len(last.Comments) != 1 {
		t.Errorf("unexpected last filtered requirement: id=%d comments=%d", last.ID, len(last.Comments))
	}
	if len(filtered.Requirements[0].Comments) != 0 {
		t.Errorf("comments of unmatched requirements leaked: %+v", filtered.Requirements[0].Comments)
	}
}

func TestList_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestRequirement(t, db, model.RequirementInput{Title: "Login page", Developer: "ana", Priority: "High", Unit: "Imagine"})
	createTestRequirement(t, db, model.RequirementInput{Title: "Billing", Description: "invoice LOGIN hook", Developer: "bo", Status: "Completed", Unit: "Other"})
	createTestRequirement(t, db, model.RequirementInput{Title: "Reports", Developer: "Carla", Priority: "Low", Status: "In Progress", Unit: "Other"})

	tests := []struct {
		name   string
		filter model.Filter
		want   []string
	}{
		{"no filter", model.Filter{}, []string{"Login page", "Billing", "Reports"}},
		{"blank values ignored", model.Filter{Search: "  ", Status: " ", Unit: ""}, []string{"Login page", "Billing", "Reports"}},
		{"search is case-insensitive", model.Filter{Search: "login"}, []string{"Login page", "Billing"}},
		{"search matches developer", model.Filter{Search: "carl"}, []string{"Reports"}},
		{"status", model.Filter{Status: "Completed"}, []string{"Billing"}},
		{"priority", model.Filter{Priority: "High"}, []string{"Login page"}},
		{"unit excludes other units", model.Filter{Unit: "Other"}, []string{"Billing", "Reports"}},
		{"developer", model.Filter{Developer: "ana"}, []string{"Login page"}},
		{"combined", model.Filter{Search: "login", Unit: "Other"}, []string{"Billing"}},
		{"no match", model.Filter{Search: "nothing here"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := db.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if got := titles(listing.Requirements); !equalStrings(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestList_NullColumnsPassEqualityFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := createTestRequirement(t, db, model.RequirementInput{Title: "Legacy"})
	createTestRequirement(t, db, model.RequirementInput{Title: "Imagined", Unit: "Imagine"})
	if _, err := db.ExecContext(ctx, `UPDATE requirements SET unit = NULL, priority = NULL, developer = NULL WHERE id = ?`, id); err != nil {
		t.Fatalf("failed to null columns: %v", err)
	}

	listing, err := db.List(ctx, model.Filter{Unit: "Other"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if got := titles(listing.Requirements); !equalStrings(got, []string{"Legacy"}) {
		t.Errorf("got %v, want [Legacy]", got)
	}

	listing, err = db.List(ctx, model.Filter{Priority: "High", Developer: "zed"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if got := titles(listing.Requirements); !equalStrings(got, []string{"Legacy"}) {
		t.Errorf("got %v, want [Legacy]", got)
	}
}

func TestList_SearchIsLiteral(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestRequirement(t, db, model.RequirementInput{Title: "100% done"})
	createTestRequirement(t, db, model.RequirementInput{Title: "1000 items"})
	createTestRequirement(t, db, model.RequirementInput{Title: "snake_case"})
	createTestRequirement(t, db, model.RequirementInput{Title: "snakeXcase"})

	tests := []struct {
		search string
		want   []string
	}{
		{"0%", []string{"100% done"}},
		{"_", []string{"snake_case"}},
		{"%", []string{"100% done"}},
		{`\`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			listing, err := db.List(ctx, model.Filter{Search: tt.search})
			if err != nil {
				t.Fatalf("failed to list: %v", err)
			}
			if got := titles(listing.Requirements); !equalStrings(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestList_StatusCountsIgnoreFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createTestRequirement(t, db, model.RequirementInput{Title: "a"})
	createTestRequirement(t, db, model.RequirementInput{Title: "b"})
	createTestRequirement(t, db, model.RequirementInput{Title: "c", Status: "Completed"})
	createTestRequirement(t, db, model.RequirementInput{Title: "d", Status: "In Progress"})

	listing, err := db.List(ctx, model.Filter{Status: "Completed"})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(listing.Requirements) != 1 {
		t.Fatalf("expected 1 filtered requirement, got %d", len(listing.Requirements))
	}
	if listing.StatusCounts[model.StatusPending] != 2 {
		t.Errorf("pending = %d, want 2", listing.StatusCounts[model.StatusPending])
	}
	if listing.StatusCounts[model.StatusInProgress] != 1 {
		t.Errorf("in progress = %d, want 1", listing.StatusCounts[model.StatusInProgress])
	}
	if listing.StatusCounts[model.StatusCompleted] != 1 {
		t.Errorf("completed = %d, want 1", listing.StatusCounts[model.StatusCompleted])
	}
	if listing.Total() != 4 {
		t.Errorf("total = %d, want 4", listing.Total())
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`c:\dir`, `c:\\dir`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := createTestRequirement(t, db, model.RequirementInput{Title: "First", Progress: "30"})
	second := createTestRequirement(t, db, model.RequirementInput{Title: "Second"})
	if err := db.AddComment(ctx, second, "c1"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if err := db.AddComment(ctx, first, "c2"); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if _, err := db.UpdateStatus(ctx, first, model.StatusCompleted); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	rows, err := db.ExportRows(ctx)
	if err != nil {
		t.Fatalf("failed to export rows: %v", err)
	}

	type key struct {
		id     int64
		kind   model.RowKind
		detail string
	}
	want := []key{
		{first, model.RowRequirement, "First"},
		{first, model.RowComment, "c2"},
		{first, model.RowAction, model.ActionCreated},
		{first, model.RowAction, model.ActionCommentAdded},
		{first, model.RowAction, "status_changed_to_Completed"},
		{second, model.RowRequirement, "Second"},
		{second, model.RowComment, "c1"},
		{second, model.RowAction, model.ActionCreated},
		{second, model.RowAction, model.ActionCommentAdded},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i, r := range rows {
		detail := r.Title
		switch r.Kind {
		case model.RowComment:
			detail = r.Comment
		case model.RowAction:
			detail = r.Action
		}
		got := key{r.RequirementID, r.Kind, detail}
		if got != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got, want[i])
		}
	}

	if rows[0].Progress != 30 || rows[0].Status != string(model.StatusCompleted) {
		t.Errorf("primary row = %+v", rows[0])
	}
	if rows[1].CommentDate == "" || rows[2].ActionDate == "" {
		t.Errorf("missing dates: %+v / %+v", rows[1], rows[2])
	}
}

func TestExportRows_SkipsOrphans(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// The pragma is per connection.
	db.SetMaxOpenConns(1)

	createTestRequirement(t, db, model.RequirementInput{Title: "Kept"})
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("failed to disable foreign keys: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO comments (requirement_id, comment, created_at) VALUES (99, 'orphan', '2024-01-01 00:00:00')`); err != nil {
		t.Fatalf("failed to insert orphan: %v", err)
	}

	rows, err := db.ExportRows(ctx)
	if err != nil {
		t.Fatalf("failed to export rows: %v", err)
	}
	for _, r := range rows {
		if r.Comment == "orphan" {
			t.Errorf("orphan comment exported: %+v", r)
		}
	}
}
