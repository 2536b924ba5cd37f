package projects

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// ProjectsPage renders the project list with per-project progress counts.
func ProjectsPage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Projects</h1>`)
	b.WriteString(html.NoticeBanner(data.Message))

	b.WriteString(`<div class="card"><form method="GET" action="/tasker/projects" class="inline">`)
	b.WriteString(`<label>Filter: <select name="filter" onchange="this.form.submit()">`)
	for _, opt := range []string{"active", "inactive", "all"} {
		selected := ""
		if opt == data.Filter {
			selected = ` selected`
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, opt, selected, opt)
	}
	b.WriteString(`</select></label></form></div>`)

	b.WriteString(`<table><thead><tr>`)
	b.WriteString(`<th>Name</th><th>Client</th><th>Code</th><th>Date</th><th>Status</th><th>Drawings</th><th>Not Started</th><th>In Progress</th><th>Completed</th><th></th>`)
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range data.Rows {
		current := ""
		if row.IsCurrent {
			current = ` <span class="muted">(current)</span>`
		}
		fmt.Fprintf(&b, `<tr><td>%s%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>`,
			html.Escape(row.Name), current, html.Escape(row.ClientName), html.Escape(row.Code),
			html.Escape(row.ProjectDate), html.Escape(row.Status),
			row.DrawingCount, row.NotStartedComponents, row.InProgressComponents, row.CompletedComponents)
		if !row.IsCurrent {
			fmt.Fprintf(&b, `<form method="POST" action="/tasker/projects/%d/activate" class="inline"><button type="submit">Activate</button></form> `, row.ID)
		}
		if data.IsAdmin {
			nextStatus := "inactive"
			if row.Status == "inactive" {
				nextStatus = "active"
			}
			fmt.Fprintf(&b, `<form method="POST" action="/tasker/projects/%d/status" class="inline"><input type="hidden" name="status" value="%s"><input type="hidden" name="filter" value="%s"><button type="submit">Set %s</button></form> `,
				row.ID, nextStatus, html.Escape(data.Filter), nextStatus)
			fmt.Fprintf(&b, `<a href="/tasker/projects/%d/logs">Activity</a>`, row.ID)
		}
		b.WriteString(`</td></tr>`)
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="10" class="muted">No projects found.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	if data.IsAdmin {
		b.WriteString(`<div class="card"><h2>New project</h2><form method="POST" action="/tasker/projects">`)
		b.WriteString(`<div class="form-row"><label>Name</label><input type="text" name="name" required></div>`)
		b.WriteString(`<div class="form-row"><label>Description</label><input type="text" name="description" required></div>`)
		b.WriteString(`<div class="form-row"><label>Client</label><input type="text" name="client_name" required></div>`)
		fmt.Fprintf(&b, `<div class="form-row"><label>Date</label><input type="date" name="project_date" value="%s"></div>`, html.Escape(data.DefaultDate))
		b.WriteString(`<div class="form-row"><label>Code</label><input type="text" name="code" placeholder="optional"></div>`)
		b.WriteString(`<div class="form-row"><label>Status</label><select name="status"><option value="active">active</option><option value="inactive">inactive</option></select></div>`)
		b.WriteString(`<button type="submit" class="primary">Create project</button></form></div>`)
	}

	return html.NavPage("Projects", "/tasker/projects", b.String())
}
