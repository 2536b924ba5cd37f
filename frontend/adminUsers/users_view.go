package adminusers

import (
	"fmt"
	"strings"

	"pipetrak/frontend/shared/html"
)

// UsersListPage renders the account list and the create/access forms.
func UsersListPage(data PageData) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Users</h1>`)
	b.WriteString(html.ErrorBanner(data.ErrorMessage))
	b.WriteString(html.NoticeBanner(data.Status))

	b.WriteString(`<table><thead><tr><th>ID</th><th>Username</th><th>Role</th><th>Viewer projects</th></tr></thead><tbody>`)
	for _, u := range data.Users {
		fmt.Fprintf(&b, `<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			u.ID, html.Escape(u.Username), html.Escape(u.Role), html.Escape(u.ViewerProjects))
	}
	if len(data.Users) == 0 {
		b.WriteString(`<tr><td colspan="4" class="muted">No users yet.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(`<div class="card"><h2>Create user</h2><form method="POST" action="/tasker/admin/users">`)
	b.WriteString(`<div class="form-row"><label>Username</label><input type="text" name="username" required></div>`)
	b.WriteString(`<div class="form-row"><label>Password</label><input type="password" name="password" required></div>`)
	b.WriteString(`<div class="form-row"><label>Role</label><select name="role">`)
	b.WriteString(`<option value="engineer">engineer</option><option value="viewer">viewer</option><option value="admin">admin</option>`)
	b.WriteString(`</select></div>`)
	b.WriteString(`<div class="form-row"><label>Viewer projects</label><select name="viewer_project_ids" multiple size="4">`)
	writeProjectOptions(&b, data.Projects)
	b.WriteString(`</select></div>`)
	b.WriteString(`<button type="submit" class="primary">Create</button></form></div>`)

	b.WriteString(`<div class="card"><h2>Update viewer access</h2><form method="POST" action="/tasker/admin/users/viewer-access">`)
	b.WriteString(`<div class="form-row"><label>Viewer user</label><select name="viewer_user_id">`)
	for _, u := range data.Users {
		if u.Role == "viewer" {
			fmt.Fprintf(&b, `<option value="%d">%s</option>`, u.ID, html.Escape(u.Username))
		}
	}
	b.WriteString(`</select></div>`)
	b.WriteString(`<div class="form-row"><label>Projects</label><select name="viewer_project_ids_update" multiple size="4">`)
	writeProjectOptions(&b, data.Projects)
	b.WriteString(`</select></div>`)
	b.WriteString(`<button type="submit" class="primary">Update access</button></form></div>`)

	return html.NavPage("Users", "/tasker/admin/users", b.String())
}

func writeProjectOptions(b *strings.Builder, projects []ProjectOption) {
	for _, p := range projects {
		fmt.Fprintf(b, `<option value="%d">%s</option>`, p.ID, html.Escape(p.Label))
	}
}
