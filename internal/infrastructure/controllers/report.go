package controllers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"

	"github.com/rios0rios0/repopatch/internal/domain/commands"
	"github.com/rios0rios0/repopatch/internal/domain/entities"
)

//nolint:gochecknoglobals // shared terminal styles
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noOpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func newTable(w io.Writer, headers ...any) table.Table {
	return table.New(headers...).
		WithWriter(w).
		WithWidthFunc(lipgloss.Width).
		WithHeaderFormatter(func(format string, args ...any) string {
			return headerStyle.Render(fmt.Sprintf(format, args...))
		})
}

// printBatchReport writes one row per repository followed by the failure logs.
func printBatchReport(w io.Writer, batch *entities.BatchResult, verbose bool) {
	mode := ""
	if batch.DryRun {
		mode = " (dry-run)"
	}
	_, _ = fmt.Fprintf(w, "\nBatch %s: %s%s\n\n", batch.ID, batch.Action, mode)

	tbl := newTable(w, "Repository", "Status", "Files", "Pull Request")
	for _, result := range batch.Results {
		tbl.AddRow(result.Repo.FullName, status(result), changedFiles(result), result.PRURL)
	}
	tbl.Print()

	_, _ = fmt.Fprintf(w, "\n%d succeeded, %d failed in %s\n",
		batch.Succeeded(), batch.Failed(), batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))

	for _, result := range batch.Results {
		if result.Success && !verbose {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\n%s\n", headerStyle.Render(result.Repo.FullName), result.Message)
	}
}

func status(result entities.ActionResult) string {
	switch {
	case !result.Success:
		return failureStyle.Render("failed")
	case result.NoOp:
		return noOpStyle.Render("no-op")
	default:
		return successStyle.Render("ok")
	}
}

func changedFiles(result entities.ActionResult) string {
	changed := 0
	for _, file := range result.Files {
		if file.Changed {
			changed++
		}
	}
	return fmt.Sprintf("%d/%d", changed, len(result.Files))
}

func printRepositories(w io.Writer, repos []entities.Repository) {
	tbl := newTable(w, "Repository", "Default Branch", "Visibility", "Updated", "Description")
	for _, repo := range repos {
		visibility := "public"
		if repo.Private {
			visibility = "private"
		}
		flags := make([]string, 0, 2)
		if repo.Fork {
			flags = append(flags, "fork")
		}
		if repo.Archived {
			flags = append(flags, "archived")
		}
		if len(flags) > 0 {
			visibility += " (" + strings.Join(flags, ", ") + ")"
		}
		updated := ""
		if !repo.UpdatedAt.IsZero() {
			updated = repo.UpdatedAt.Format("2006-01-02")
		}
		tbl.AddRow(repo.FullName, repo.DefaultBranch, visibility, updated, repo.Description)
	}
	tbl.Print()
	_, _ = fmt.Fprintf(w, "\n%d repositories\n", len(repos))
}

func printPlaceholderReports(w io.Writer, repoFullName string, reports []commands.PlaceholderReport) {
	_, _ = fmt.Fprintf(w, "\nPlaceholders of %s\n\n", repoFullName)
	tbl := newTable(w, "Name", "Method", "File", "Value")
	for _, report := range reports {
		var value string
		switch {
		case report.Err != nil:
			value = failureStyle.Render(report.Err.Error())
		case report.Null:
			value = noOpStyle.Render("<null>")
		default:
			value = successStyle.Render(report.Value)
		}
		tbl.AddRow(report.Name, report.Method, report.FilePath, value)
	}
	tbl.Print()
}

func failedPlaceholders(reports []commands.PlaceholderReport) int {
	failed := 0
	for _, report := range reports {
		if report.Err != nil {
			failed++
		}
	}
	return failed
}
