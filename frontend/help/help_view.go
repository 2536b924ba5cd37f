package help

import (
	"strings"

	"pipetrak/frontend/shared/html"
)

// HelpPage renders role-specific usage notes.
func HelpPage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Help</h1>`)

	b.WriteString(`<div class="card"><h2>Milestones</h2>`)
	b.WriteString(`<p>Each component moves through its milestone sequence in order: a milestone unlocks once the step before it is done. `)
	b.WriteString(`Receive has no prerequisite. Punch needs everything before it, Test needs Punch, Restore needs Test.</p>`)
	b.WriteString(`<ul>`)
	b.WriteString(`<li><strong>Green</strong> buttons are complete; click to undo (only if nothing later depends on it).</li>`)
	b.WriteString(`<li><strong>Blue</strong> buttons are ready to complete now.</li>`)
	b.WriteString(`<li><strong>Grey</strong> buttons are waiting on an earlier step; hover for the reason.</li>`)
	b.WriteString(`<li><strong>Red</strong> buttons show the last update failed; hover for the message.</li>`)
	b.WriteString(`</ul></div>`)

	if data.IsAdmin || data.IsEngineer {
		b.WriteString(`<div class="card"><h2>Bulk updates</h2>`)
		b.WriteString(`<p>Tick components on a drawing page and choose "Bulk update selected". Only milestones shared by every selected component are offered. `)
		b.WriteString(`Each component is updated independently, so one failure never rolls back the rest; the result page groups failures by reason and lets you retry just the failed ones.</p></div>`)

		b.WriteString(`<div class="card"><h2>Imports and exports</h2>`)
		b.WriteString(`<p>Load components from CSV on the Import page; drawings are created automatically. `)
		b.WriteString(`Progress CSVs are on the Exports page, and printable component tags on each drawing page.</p></div>`)
	}

	if data.IsAdmin {
		b.WriteString(`<div class="card"><h2>Administration</h2>`)
		b.WriteString(`<p>Admins manage projects and user accounts. Viewer accounts are read-only and only see the projects assigned to them. `)
		b.WriteString(`Inactive projects are read-only for everyone.</p></div>`)
	}

	if data.IsViewer {
		b.WriteString(`<div class="card"><h2>Viewing progress</h2>`)
		b.WriteString(`<p>Your account is read-only. Use the Drawings page to follow installation progress on the projects assigned to you.</p></div>`)
	}

	return html.NavPage("Help", "/tasker/help", b.String())
}
