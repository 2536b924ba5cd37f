package drawings

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
	"pipetrak/workflow"
)

// DrawingsListPage renders the drawing list with progress roll-ups.
func DrawingsListPage(data ListPageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Drawings</h1>`)
	b.WriteString(html.ErrorBanner(data.ErrorMessage))
	b.WriteString(html.NoticeBanner(data.Message))

	b.WriteString(`<table><thead><tr><th>Number</th><th>Title</th><th>Rev</th><th>Components</th><th>In Progress</th><th>Completed</th><th>Progress</th></tr></thead><tbody>`)
	for _, d := range data.Drawings {
		fmt.Fprintf(&b, `<tr><td><a href="/tasker/drawings/%d">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td>`,
			d.ID, html.Escape(d.Number), html.Escape(d.Title), html.Escape(d.Revision),
			d.ComponentCount, d.InProgressCount, d.CompletedCount)
		fmt.Fprintf(&b, `<td><div class="progress-track"><div class="progress-fill" style="width:%d%%"></div></div><span class="muted">%d%%</span></td></tr>`,
			d.AveragePercent, d.AveragePercent)
	}
	if len(data.Drawings) == 0 {
		b.WriteString(`<tr><td colspan="7" class="muted">No drawings in the active project yet.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	if data.CanEdit {
		b.WriteString(`<div class="card"><h2>New drawing</h2><form method="POST" action="/tasker/drawings">`)
		b.WriteString(`<div class="form-row"><label>Number</label><input type="text" name="number" required></div>`)
		b.WriteString(`<div class="form-row"><label>Title</label><input type="text" name="title"></div>`)
		b.WriteString(`<div class="form-row"><label>Revision</label><input type="text" name="revision"></div>`)
		b.WriteString(`<button type="submit" class="primary">Create drawing</button></form></div>`)
	}

	return html.NavPage("Drawings", "/tasker/drawings", b.String())
}

// DrawingDetailPage renders the component table with milestone buttons
// and the bulk selection form.
func DrawingDetailPage(data DetailPageData) html.Component {
	var b strings.Builder

	fmt.Fprintf(&b, `<h1>%s</h1>`, html.Escape(data.DrawingNumber))
	if data.DrawingTitle != "" || data.Revision != "" {
		fmt.Fprintf(&b, `<p class="muted">%s &middot; Rev %s</p>`, html.Escape(data.DrawingTitle), html.Escape(data.Revision))
	}
	b.WriteString(html.ErrorBanner(data.ErrorMessage))

	b.WriteString(`<form method="GET" action="/tasker/bulk">`)
	b.WriteString(`<table><thead><tr>`)
	if data.CanEdit {
		b.WriteString(`<th><input type="checkbox" id="select-all-components"></th>`)
	}
	b.WriteString(`<th>Code</th><th>Type</th><th>Milestones</th><th>Progress</th><th>Status</th></tr></thead><tbody>`)

	for _, row := range data.Rows {
		b.WriteString(`<tr>`)
		if data.CanEdit {
			fmt.Fprintf(&b, `<td><input type="checkbox" name="component_ids" value="%d"></td>`, row.ID)
		}
		fmt.Fprintf(&b, `<td>%s<div class="muted">%s</div></td><td>%s</td><td>`,
			html.Escape(row.Code), html.Escape(row.Unit), html.Escape(row.ComponentType))

		for _, cell := range row.Milestones {
			label := html.Escape(cell.Name)
			if cell.Display != "" {
				label += ` <span class="muted">` + html.Escape(cell.Display) + `</span>`
			}
			if data.CanEdit && cell.State != workflow.StateBlocked && cell.State != workflow.StateLoading {
				fmt.Fprintf(&b, `<button type="button" class="ms-btn %s" title="%s" data-milestone-url="/tasker/api/components/%d/milestones/%d" data-action="toggle">%s</button>`,
					cell.State, html.Escape(cell.Tooltip), row.ID, cell.ID, label)
			} else {
				fmt.Fprintf(&b, `<button type="button" class="ms-btn %s" title="%s" disabled>%s</button>`,
					cell.State, html.Escape(cell.Tooltip), label)
			}
		}

		fmt.Fprintf(&b, `</td><td><div class="progress-track"><div class="progress-fill" style="width:%d%%"></div></div><span class="muted">%d%%</span></td><td>%s</td></tr>`,
			row.CompletionPercent, row.CompletionPercent, html.Escape(row.Status))
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="6" class="muted">No components on this drawing.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	if data.CanEdit {
		b.WriteString(`<p><button type="submit" class="primary">Bulk update selected</button></p>`)
	}
	b.WriteString(`</form>`)

	b.WriteString(`<p><a href="/tasker/drawings">Back to drawings</a>`)
	if data.CanEdit {
		fmt.Fprintf(&b, ` &middot; <a href="/tasker/drawings/%d/labels.pdf">Print component tags</a>`, data.DrawingID)
		fmt.Fprintf(&b, ` &middot; <a href="/tasker/exports/drawings/%d.csv">Download CSV</a>`, data.DrawingID)
	}
	b.WriteString(`</p>`)
	b.WriteString(`<script src="/assets/app.js"></script>`)

	return html.NavPage("Drawing "+data.DrawingNumber, "/tasker/drawings", b.String())
}
