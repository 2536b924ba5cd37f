package settings

import (
	"strings"

	"pipetrak/frontend/shared/html"
)

func NotificationSettingsPage(status string) html.Component {
	var b strings.Builder

	b.WriteString(`<h1>Notification settings</h1>`)
	b.WriteString(html.NoticeBanner(status))

	b.WriteString(`<div class="card"><form method="POST" action="/tasker/settings/notifications">`)
	b.WriteString(`<div class="form-row"><label><input type="checkbox" name="email_enabled" value="1"> Email me a daily progress summary for my active project</label></div>`)
	b.WriteString(`<button type="submit" class="primary">Save</button></form></div>`)

	return html.NavPage("Settings", "/tasker/settings/notifications", b.String())
}
