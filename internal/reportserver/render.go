package reportserver

import (
	"context"
	"fmt"
	"html"
	"io"

	"subsync/internal/sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

func render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/html; charset=UTF-8")
	return component.Render(c.Request().Context(), c.Response())
}

// reportPage builds the HTML component by hand, since no templ
// toolchain runs in this exercise; templ.ComponentFunc is templ's own
// escape hatch for exactly this.
func reportPage(report *sync.Report, entryCount int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, reportPageHTML,
			html.EscapeString(report.RunID),
			report.SamplesAttempted,
			report.SamplesMatched,
			html.EscapeString(report.Mode),
			report.Variance,
			report.MultiPassFired,
			report.RefinementKept,
			report.FinalThreshold,
			entryCount,
			report.DryRun,
			matchRows(report),
		)
		return err
	})
}

func matchRows(report *sync.Report) string {
	var rows string
	for _, m := range report.Matches {
		rows += fmt.Sprintf(
			"<tr><td>%.0fs</td><td>%d</td><td>%.2f</td><td>%s</td><td>%s</td></tr>\n",
			m.SampleStartTime, m.Minute, m.Similarity,
			html.EscapeString(m.AIText), html.EscapeString(m.SubtitleText),
		)
	}
	return rows
}

const reportPageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>subsync report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%%; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 0.9em; }
</style>
</head>
<body>
<h1>subsync report</h1>
<ul>
<li>run id: %s</li>
<li>samples attempted: %d</li>
<li>samples matched: %d</li>
<li>offset mode: %s</li>
<li>variance: %.3f</li>
<li>multi-pass fired: %t</li>
<li>refinement kept: %t</li>
<li>final threshold: %.2f</li>
<li>rewritten entries: %d</li>
<li>dry run: %t</li>
</ul>
<table>
<tr><th>sample time</th><th>minute</th><th>similarity</th><th>transcript</th><th>subtitle</th></tr>
%s
</table>
</body>
</html>
`
