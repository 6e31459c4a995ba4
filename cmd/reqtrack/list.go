package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/baiirun/reqtrack/internal/model"
)

// RequirementJSON is one entry of `list --json`.
type RequirementJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Progress    int    `json:"progress"`
	Unit        string `json:"unit"`
	Developer   string `json:"developer"`
	CreatedAt   string `json:"created_at"`
	Comments    int    `json:"comments"`
}

// ListJSON is the `list --json` document.
type ListJSON struct {
	Requirements []RequirementJSON `json:"requirements"`
	StatusCounts map[string]int    `json:"status_counts"`
	Total        int               `json:"total"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		listing, err := database.List(cmd.Context(), model.Filter{
			Search:    flagSearch,
			Status:    flagStatus,
			Priority:  flagPriority,
			Unit:      flagUnit,
			Developer: flagDeveloper,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			return printListJSON(out, listing)
		}
		printList(out, listing)
		return nil
	},
}

func toListJSON(listing *model.Listing) ListJSON {
	doc := ListJSON{
		Requirements: make([]RequirementJSON, 0, len(listing.Requirements)),
		StatusCounts: make(map[string]int, len(model.Statuses)),
		Total:        listing.Total(),
	}
	for _, s := range model.Statuses {
		doc.StatusCounts[string(s)] = listing.StatusCounts[s]
	}
	for _, r := range listing.Requirements {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format(model.TimestampLayout)
		}
		doc.Requirements = append(doc.Requirements, RequirementJSON{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Status:      string(r.Status),
			Priority:    r.Priority,
			Progress:    r.Progress,
			Unit:        r.Unit,
			Developer:   r.Developer,
			CreatedAt:   created,
			Comments:    len(r.Comments),
		})
	}
	return doc
}

func printListJSON(w io.Writer, listing *model.Listing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toListJSON(listing))
}

func printList(w io.Writer, listing *model.Listing) {
	counts := make([]string, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		counts = append(counts, fmt.Sprintf("%s: %d", s, listing.StatusCounts[s]))
	}
	fmt.Fprintf(w, "Total: %d (%s)\n\n", listing.Total(), strings.Join(counts, ", "))

	if len(listing.Requirements) == 0 {
		fmt.Fprintln(w, "No requirements found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tPROGRESS\tUNIT\tDEVELOPER\tCOMMENTS")
	for _, r := range listing.Requirements {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d%%\t%s\t%s\t%d\n",
			r.ID, r.Title, r.Status, r.Priority, r.Progress, r.Unit, r.Developer, len(r.Comments))
	}
	_ = tw.Flush()
}
