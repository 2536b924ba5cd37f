package imports

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// ImportPage renders the CSV upload form with the expected format.
func ImportPage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Import components</h1>`)
	b.WriteString(html.NoticeBanner(data.Message))

	if data.ProjectID == 0 {
		b.WriteString(`<p class="muted">Select an active project before importing components.</p>`)
		return html.NavPage("Import", "/tasker/imports", b.String())
	}

	fmt.Fprintf(&b, `<p class="muted">Components will be added to <strong>%s</strong>. Drawings are created on the fly.</p>`,
		html.Escape(data.ProjectName))

	b.WriteString(`<div class="card"><form method="POST" action="/tasker/imports" enctype="multipart/form-data">`)
	b.WriteString(`<div class="form-row"><label>CSV file</label><input type="file" name="file" accept=".csv" required></div>`)
	b.WriteString(`<button type="submit" class="primary">Import</button></form></div>`)

	b.WriteString(`<div class="card"><h2>File format</h2>`)
	b.WriteString(`<p><code>drawing,code,type,workflow,template,quantity,unit</code></p>`)
	b.WriteString(`<ul>`)
	b.WriteString(`<li><code>workflow</code> is one of MILESTONE_DISCRETE, MILESTONE_PERCENTAGE, MILESTONE_QUANTITY</li>`)
	b.WriteString(`<li><code>template</code> names one of the milestone templates below</li>`)
	b.WriteString(`<li><code>quantity</code> and <code>unit</code> are required for quantity components only</li>`)
	b.WriteString(`</ul>`)

	if len(data.Templates) > 0 {
		b.WriteString(`<p>Available templates: `)
		names := make([]string, 0, len(data.Templates))
		for _, t := range data.Templates {
			names = append(names, html.Escape(t.Name))
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(`</p>`)
	}
	b.WriteString(`</div>`)

	return html.NavPage("Import", "/tasker/imports", b.String())
}
