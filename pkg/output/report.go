package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/sdejongh/drivebridge/pkg/models"
)

// reportGroup is one section of the decision report
type reportGroup struct {
	label   string
	entries []models.EntryResult
}

// WriteDecisionReport writes the entries that needed action (or failed) to a file.
// Format can be "human" or "json". Nothing is written when every entry was unchanged.
func WriteDecisionReport(outcome *models.SyncOutcome, path string, format string) error {
	groups := groupEntries(outcome.Entries)
	if len(groups) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatJSON:
		err = writeReportJSON(outcome, groups, file)
	default:
		err = writeReportHuman(outcome, groups, file)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// groupEntries splits the actionable entries into failed, created and replaced
func groupEntries(entries []models.EntryResult) []reportGroup {
	var failed, created, replaced []models.EntryResult
	for _, e := range entries {
		switch {
		case e.Failed():
			failed = append(failed, e)
		case e.Decision == models.DecisionCreate:
			created = append(created, e)
		case e.Decision == models.DecisionReplace:
			replaced = append(replaced, e)
		}
	}

	var groups []reportGroup
	for _, g := range []reportGroup{
		{"Failed", failed},
		{"New Files", created},
		{"Modified Files", replaced},
	} {
		if len(g.entries) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func writeReportHuman(outcome *models.SyncOutcome, groups []reportGroup, w io.Writer) error {
	fmt.Fprintf(w, "Decision Report\n")
	fmt.Fprintf(w, "===============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run: %s\n", outcome.RunID)
	fmt.Fprintf(w, "Source: %s\n", outcome.SourcePath)
	fmt.Fprintf(w, "Target: %s\n", outcome.TargetPath)
	fmt.Fprintf(w, "Dry Run: %v\n", outcome.DryRun)
	fmt.Fprintf(w, "Status: %s\n\n", outcome.Status)

	for _, g := range groups {
		label := fmt.Sprintf("%s (%d files)", g.label, len(g.entries))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, e := range g.entries {
			fmt.Fprintf(w, "  %s\n", e.RelativePath)
			if e.Error != "" {
				fmt.Fprintf(w, "    Error:   %s\n", e.Error)
			}
			if e.SourceHash != "" {
				fmt.Fprintf(w, "    Source:  %s\n", e.SourceHash)
			}
			if e.TargetHash != "" {
				fmt.Fprintf(w, "    Target:  %s\n", e.TargetHash)
			}
			if e.BytesCopied > 0 {
				fmt.Fprintf(w, "    Copied:  %s\n", humanize.IBytes(uint64(e.BytesCopied)))
			}
		}
		fmt.Fprintf(w, "\n")
	}

	_, err := fmt.Fprintf(w, "%s\n", outcome.Summary())
	return err
}

func writeReportJSON(outcome *models.SyncOutcome, groups []reportGroup, w io.Writer) error {
	var entries []models.EntryResult
	for _, g := range groups {
		entries = append(entries, g.entries...)
	}

	doc := struct {
		Generated  string               `json:"generated"`
		RunID      string               `json:"run_id"`
		Source     string               `json:"source"`
		Target     string               `json:"target"`
		DryRun     bool                 `json:"dry_run"`
		Status     string               `json:"status"`
		TotalCount int                  `json:"total_count"`
		Entries    []models.EntryResult `json:"entries"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		RunID:      outcome.RunID,
		Source:     outcome.SourcePath,
		Target:     outcome.TargetPath,
		DryRun:     outcome.DryRun,
		Status:     string(outcome.Status),
		TotalCount: len(entries),
		Entries:    entries,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}
