package nav

import (
	"fmt"
	"html"
	"strings"

	"pipetrak/models"
)

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username string
	Role     string
	// ScreenPermissions gates which links render for the user.
	ScreenPermissions map[string]int
}

func BuildTopNavData(session models.Session) TopNavData {
	return TopNavData{
		Username:          session.User.Username,
		Role:              session.User.Role,
		ScreenPermissions: session.ScreenPermissions,
	}
}

type link struct {
	Label string
	Href  string
	// Code must match a registered RBAC resource code; empty renders always.
	Code string
}

var links = []link{
	{Label: "Projects", Href: "/tasker/projects", Code: "PROJECTS_LIST_VIEW"},
	{Label: "Drawings", Href: "/tasker/drawings", Code: "DRAWINGS_LIST_VIEW"},
	{Label: "Imports", Href: "/tasker/imports", Code: "COMPONENT_IMPORT_VIEW"},
	{Label: "Exports", Href: "/tasker/exports", Code: "EXPORTS_VIEW"},
	{Label: "Users", Href: "/tasker/admin/users", Code: "ADMIN_USERS_LIST_VIEW"},
	{Label: "Settings", Href: "/tasker/settings/notifications", Code: "SETTINGS_NOTIFICATIONS_VIEW"},
	{Label: "Help", Href: "/tasker/help", Code: ""},
}

// Render builds the top navigation bar. activeHref marks the current page.
func (d TopNavData) Render(activeHref string) string {
	var b strings.Builder
	b.WriteString(`<nav class="topnav"><div class="topnav-links">`)
	for _, l := range links {
		if l.Code != "" && d.ScreenPermissions != nil {
			if _, ok := d.ScreenPermissions[l.Code]; !ok {
				continue
			}
		}
		class := "topnav-link"
		if l.Href == activeHref {
			class += " active"
		}
		fmt.Fprintf(&b, `<a class="%s" href="%s">%s</a>`, class, l.Href, html.EscapeString(l.Label))
	}
	b.WriteString(`</div><div class="topnav-user">`)
	fmt.Fprintf(&b, `<span>%s (%s)</span>`, html.EscapeString(d.Username), html.EscapeString(d.Role))
	b.WriteString(`<form method="POST" action="/logout"><button type="submit" class="link-button">Logout</button></form>`)
	b.WriteString(`</div></nav>`)
	return b.String()
}
