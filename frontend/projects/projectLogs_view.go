package projects

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// ProjectLogsPage renders the audit trail scoped to one project.
func ProjectLogsPage(data ProjectLogsPageData) html.Component {
	var b strings.Builder

	fmt.Fprintf(&b, `<h1>Activity: %s</h1>`, html.Escape(data.ProjectName))
	fmt.Fprintf(&b, `<p class="muted">%s &middot; %s</p>`, html.Escape(data.ClientName), html.Escape(data.ProjectStatus))
	b.WriteString(html.NoticeBanner(data.Message))

	b.WriteString(`<table><thead><tr><th>When</th><th>Who</th><th>Action</th><th>Entity</th><th>Before</th><th>After</th></tr></thead><tbody>`)
	for _, row := range data.Rows {
		entity := row.EntityType
		if row.EntityID != "" {
			entity += " #" + row.EntityID
		}
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><code>%s</code></td><td><code>%s</code></td></tr>`,
			html.Escape(row.CreatedAtUK), html.Escape(row.Actor), html.Escape(row.Action),
			html.Escape(entity), html.Escape(row.BeforeJSON), html.Escape(row.AfterJSON))
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="6" class="muted">No activity recorded for this project.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<p><a href="/tasker/projects">Back to projects</a></p>`)

	return html.NavPage("Project activity", "/tasker/projects", b.String())
}
