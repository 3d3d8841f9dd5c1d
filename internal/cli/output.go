package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/providers/tips"
)

const maxMessageWidth = 60

func renderTable(w io.Writer, results []fileResult) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"File", "Category", "Location", "Message", "Explanation"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxMessageWidth},
		{Number: 5, WidthMax: maxMessageWidth},
	})

	issues := 0
	for _, r := range results {
		if r.Err != "" {
			issues++
			t.AppendRow(table.Row{r.File, "unreadable", "", r.Err, ""})
			continue
		}
		if !r.clean() {
			issues++
		}
		explanation := r.Result.Explanation
		if r.Result.Hint != "" && r.Result.Hint != explanation {
			explanation += " " + r.Result.Hint
		}
		t.AppendRow(table.Row{
			r.File,
			categoryLabel(r.Result.Category),
			r.Result.Location,
			r.Result.Message,
			explanation,
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d with issues", issues, len(results)), ""})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func categoryLabel(c analysis.Category) string {
	switch c {
	case analysis.CategoryNoError:
		return text.FgGreen.Sprint(string(c))
	case analysis.CategoryPossibleIssue:
		return text.FgYellow.Sprint(string(c))
	default:
		return text.FgRed.Sprint(string(c))
	}
}

func renderJSON(w io.Writer, results []fileResult) error {
	data, err := sonic.ConfigStd.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderTips(w io.Writer, catalog []tips.Tip) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Tip", "Description"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: maxMessageWidth}})
	for i, tip := range catalog {
		t.AppendRow(table.Row{i + 1, strings.TrimSpace(tip.Title), tip.Description})
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
