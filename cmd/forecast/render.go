package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-forecast/internal/model"
	"github.com/rxtech-lab/argo-forecast/internal/pipeline"
)

// Style definitions.
var (
	// TitleStyle for section headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("57"))

	// LabelStyle for metric names.
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(22)

	// ValueStyle for metric values.
	ValueStyle = lipgloss.NewStyle().Bold(true)

	// WarningStyle for failed instruments.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderReport formats a run report for the terminal.
func renderReport(report *pipeline.Report) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Forecast run "+report.RunID) + "\n\n")

	metric := func(label, value string) {
		b.WriteString(LabelStyle.Render(label) + ValueStyle.Render(value) + "\n")
	}

	metric("Feature rows", fmt.Sprintf("%d (%d train / %d holdout)", report.Rows, report.TrainRows, report.HoldoutRows))
	metric("Split boundary", report.SplitBoundary.Format("2006-01-02"))
	metric("Best params", model.FormatParams(report.BestParams))
	metric("CV accuracy", formatAccuracy(report.CVScore))
	metric("Train accuracy", formatAccuracy(report.TrainAccuracy))
	metric("Holdout accuracy", formatAccuracy(report.HoldoutAccuracy))

	if report.WalkForwardMean != nil {
		metric("Walk-forward mean", formatAccuracy(*report.WalkForwardMean))
	} else {
		metric("Walk-forward mean", "n/a (no window fits the holdout)")
	}

	if report.Selection != nil {
		kept := make([]string, len(report.Selection.Kept))
		for i, name := range report.Selection.Kept {
			kept[i] = string(name)
		}

		metric("Kept features", strings.Join(kept, ", "))

		if len(report.Selection.Dropped) > 0 {
			dropped := make([]string, 0, len(report.Selection.Dropped))
			for _, name := range report.Selection.Candidates {
				if by, ok := report.Selection.Dropped[name]; ok {
					dropped = append(dropped, fmt.Sprintf("%s (~%s)", name, by))
				}
			}

			metric("Dropped features", strings.Join(dropped, ", "))
		}
	}

	b.WriteString("\n" + instrumentTable(report) + "\n")

	if len(report.FeatureImportance) > 0 {
		b.WriteString("\n" + importanceTable(report) + "\n")
	}

	for _, failure := range report.Failures {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("skipped %s: %s", failure.Symbol, failure.Error)) + "\n")
	}

	return b.String()
}

func instrumentTable(report *pipeline.Report) string {
	t := newTable("Symbol", "Bars", "Undefined", "No next bar", "Rows")
	for _, stats := range report.Instruments {
		t.Row(stats.Symbol,
			fmt.Sprint(stats.Input),
			fmt.Sprint(stats.UndefinedFeature),
			fmt.Sprint(stats.NoNextBar),
			fmt.Sprint(stats.Output),
		)
	}

	return t.Render()
}

func importanceTable(report *pipeline.Report) string {
	t := newTable("Feature", "Importance")
	for _, fi := range report.FeatureImportance {
		t.Row(string(fi.Feature), fmt.Sprintf("%.4f", fi.Importance))
	}

	return t.Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

func formatAccuracy(value float64) string {
	return fmt.Sprintf("%.2f%%", value*100)
}
