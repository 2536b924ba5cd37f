package bulk

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// BulkUpdatePage renders the selection grouped by template, a quick
// form for milestones shared by every group, and a per-group advanced
// form.
func BulkUpdatePage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Bulk update</h1>`)
	b.WriteString(html.ErrorBanner(data.ErrorMessage))

	total := 0
	for _, group := range data.Groups {
		total += len(group.Components)
	}
	fmt.Fprintf(&b, `<p class="muted">%d components selected across %d template(s).</p>`, total, len(data.Groups))

	for _, group := range data.Groups {
		fmt.Fprintf(&b, `<div class="card"><h2>%s</h2><table><thead><tr><th>Code</th><th>Type</th><th>Workflow</th><th>Progress</th><th>Status</th></tr></thead><tbody>`,
			html.Escape(group.TemplateName))
		for _, c := range group.Components {
			fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%d%%</td><td>%s</td></tr>`,
				html.Escape(c.Code), html.Escape(c.ComponentType), html.Escape(c.WorkflowType),
				c.CompletionPercent, html.Escape(c.Status))
		}
		b.WriteString(`</tbody></table></div>`)
	}

	writeQuickForm(&b, data)
	writeAdvancedForm(&b, data)

	return html.NavPage("Bulk update", "/tasker/drawings", b.String())
}

func writeQuickForm(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card"><h2>Apply to all selected</h2>`)
	if len(data.CommonMilestones) == 0 {
		b.WriteString(`<p class="muted">The selected components share no milestone; use the per-group form below.</p>`)
	} else {
		b.WriteString(`<form method="POST" action="/tasker/bulk">`)
		b.WriteString(`<input type="hidden" name="mode" value="quick">`)
		for _, id := range data.SelectedIDs {
			fmt.Fprintf(b, `<input type="hidden" name="component_ids" value="%d">`, id)
		}
		b.WriteString(`<div class="form-row"><label>Milestone</label><select name="milestone_name">`)
		for _, name := range data.CommonMilestones {
			fmt.Fprintf(b, `<option value="%s">%s</option>`, html.Escape(name), html.Escape(name))
		}
		b.WriteString(`</select></div>`)
		writeActionFields(b)
		b.WriteString(`<button type="submit" class="primary">Run bulk update</button>`)
		b.WriteString(`</form>`)
	}
	b.WriteString(`</div>`)
}

func writeAdvancedForm(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card"><h2>Pick milestones per group</h2>`)
	b.WriteString(`<form method="POST" action="/tasker/bulk">`)
	b.WriteString(`<input type="hidden" name="mode" value="advanced">`)
	for _, group := range data.Groups {
		fmt.Fprintf(b, `<fieldset><legend>%s (%d components)</legend>`,
			html.Escape(group.TemplateName), len(group.Components))
		for _, c := range group.Components {
			fmt.Fprintf(b, `<input type="hidden" name="components_%d" value="%d">`, group.TemplateID, c.ID)
		}
		for _, name := range group.AvailableMilestones {
			fmt.Fprintf(b, `<label class="inline"><input type="checkbox" name="milestones_%d" value="%s"> %s</label> `,
				group.TemplateID, html.Escape(name), html.Escape(name))
		}
		b.WriteString(`</fieldset>`)
	}
	writeActionFields(b)
	b.WriteString(`<button type="submit" class="primary">Run per-group update</button>`)
	b.WriteString(`</form></div>`)
}

func writeActionFields(b *strings.Builder) {
	b.WriteString(`<div class="form-row"><label>Action</label><select name="action">`)
	b.WriteString(`<option value="complete">Mark complete</option>`)
	b.WriteString(`<option value="uncomplete">Mark not complete</option>`)
	b.WriteString(`<option value="set">Set value</option>`)
	b.WriteString(`</select></div>`)
	b.WriteString(`<div class="form-row"><label>Value</label><input type="number" name="value" step="any" placeholder="used by Set value only"></div>`)
}

// BulkResultPage renders the batch outcome: the applied pairs, failures
// grouped by category with per-failure retry checkboxes, and the retry
// action.
func BulkResultPage(data ResultPageData) html.Component {
	var b strings.Builder
	result := data.Result

	b.WriteString(`<h1>Bulk update result</h1>`)
	b.WriteString(html.ErrorBanner(data.ErrorMessage))

	label := result.Request.MilestoneName
	if result.Request.Mode == ModeAdvanced {
		label = "Per-group selection"
	}
	fmt.Fprintf(&b, `<div class="card"><p><strong>%s</strong> &mdash; %s</p>`,
		html.Escape(label), html.Escape(result.Request.Action))
	fmt.Fprintf(&b, `<p>Total: %d &middot; Successful: %d &middot; Failed: %d</p>`,
		result.Total, len(result.Successful), len(result.Failures))
	if len(result.Failures) == 0 {
		b.WriteString(html.NoticeBanner("All components updated."))
	}
	b.WriteString(`</div>`)

	if len(result.Successful) > 0 {
		fmt.Fprintf(&b, `<div class="card"><h2>Applied (%d)</h2><table><thead><tr><th>Component</th><th>Milestone</th></tr></thead><tbody>`,
			len(result.Successful))
		for _, s := range result.Successful {
			code := s.ComponentCode
			if code == "" {
				code = fmt.Sprintf("#%d", s.ComponentID)
			}
			fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td></tr>`, html.Escape(code), html.Escape(s.MilestoneName))
		}
		b.WriteString(`</tbody></table></div>`)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(&b, `<form method="POST" action="/tasker/bulk/results/%s/retry">`, html.Escape(result.JobID))
		for _, group := range data.FailureGroups {
			fmt.Fprintf(&b, `<div class="card"><h2>%s (%d)</h2><table><thead><tr><th></th><th>Component</th><th>Milestone</th><th>Error</th></tr></thead><tbody>`,
				html.Escape(group.Category), len(group.Failures))
			for _, f := range group.Failures {
				code := f.ComponentCode
				if code == "" {
					code = fmt.Sprintf("#%d", f.ComponentID)
				}
				fmt.Fprintf(&b, `<tr><td><input type="checkbox" name="failure_keys" value="%s" checked></td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					html.Escape(FailureKey(f)), html.Escape(code), html.Escape(f.MilestoneName), html.Escape(f.Message))
			}
			b.WriteString(`</tbody></table></div>`)
		}
		b.WriteString(`<button type="submit" class="primary">Retry selected failures</button></form>`)
	}
	b.WriteString(`<p><a href="/tasker/drawings">Back to drawings</a></p>`)

	return html.NavPage("Bulk result", "/tasker/drawings", b.String())
}
