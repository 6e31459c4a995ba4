// Package export flattens requirements, their comments and their history into
// a single denormalized table and writes it as CSV or XLSX.
package export

import (
	"sort"
	"strconv"

	"github.com/baiirun/reqtrack/internal/model"
)

// Header is the first row of every export.
var Header = []string{
	"ID", "Title", "Description", "Status", "Priority", "Progress", "Unit",
	"Developer", "CreatedAt", "Comment", "CommentDate", "Action", "ActionDate",
}

const (
	colComment     = 9
	colCommentDate = 10
	colAction      = 11
	colActionDate  = 12
)

// Flatten turns the export stream into table rows. For each requirement it
// emits the primary row, then one row per comment, then one row per history
// entry. Rows are grouped by requirement id in ascending order whatever the
// input order; within a kind the input order is kept.
func Flatten(rows []model.ExportRow) [][]string {
	sorted := make([]model.ExportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RequirementID != sorted[j].RequirementID {
			return sorted[i].RequirementID < sorted[j].RequirementID
		}
		return sorted[i].Kind < sorted[j].Kind
	})

	out := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		switch r.Kind {
		case model.RowRequirement:
			out = append(out, []string{
				strconv.FormatInt(r.RequirementID, 10),
				r.Title,
				r.Description,
				r.Status,
				r.Priority,
				strconv.Itoa(r.Progress),
				r.Unit,
				r.Developer,
				r.CreatedAt,
				"", "", "", "",
			})
		case model.RowComment:
			if r.Comment == "" {
				continue
			}
			row := make([]string, len(Header))
			row[colComment] = r.Comment
			row[colCommentDate] = r.CommentDate
			out = append(out, row)
		case model.RowAction:
			if r.Action == "" {
				continue
			}
			row := make([]string, len(Header))
			row[colAction] = r.Action
			row[colActionDate] = r.ActionDate
			out = append(out, row)
		}
	}
	return out
}
