package exports

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// ExportsPage renders the CSV download links for the selected project.
func ExportsPage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Exports</h1>`)

	b.WriteString(`<form method="GET" action="/tasker/exports"><div class="form-row"><label>Project</label><select name="project_id" onchange="this.form.submit()">`)
	for _, p := range data.Projects {
		selected := ""
		if p.Selected {
			selected = " selected"
		}
		fmt.Fprintf(&b, `<option value="%d"%s>%s</option>`, p.ID, selected, html.Escape(p.Label))
	}
	b.WriteString(`</select></div><noscript><button type="submit">Switch</button></noscript></form>`)

	fmt.Fprintf(&b, `<p class="muted">%s &middot; %s &middot; %s</p>`,
		html.Escape(data.ProjectName), html.Escape(data.ClientName), html.Escape(data.ProjectStatus))

	b.WriteString(`<div class="card"><h2>Component progress</h2>`)
	b.WriteString(`<p>Every component in the project with its workflow status and completion.</p>`)
	fmt.Fprintf(&b, `<p><a class="primary" href="/tasker/exports/components.csv?project_id=%d">Download components.csv</a></p></div>`, data.ProjectID)

	b.WriteString(`<div class="card"><h2>Drawing status</h2>`)
	b.WriteString(`<p>One row per drawing with component counts and average completion.</p>`)
	fmt.Fprintf(&b, `<p><a class="primary" href="/tasker/exports/drawing-status.csv?project_id=%d">Download drawing-status.csv</a></p></div>`, data.ProjectID)

	b.WriteString(`<p class="muted">Per-drawing component exports are available from each drawing page.</p>`)

	return html.NavPage("Exports", "/tasker/exports", b.String())
}
