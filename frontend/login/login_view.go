package login

import (
	"strings"

	"pipetrak/frontend/shared/html"
)

// GetLoginScreen renders the login form, optionally with an error banner.
func GetLoginScreen(errorMessage string) html.Component {
	var b strings.Builder
	b.WriteString(`<main><div class="card" style="max-width:420px;margin:60px auto;">`)
	b.WriteString(`<h1>PipeTrak</h1><p class="muted">Piping installation progress tracker</p>`)
	b.WriteString(html.ErrorBanner(errorMessage))
	b.WriteString(`<form method="POST" action="/login">`)
	b.WriteString(`<div class="form-row"><label>Username</label><input type="text" name="username" autofocus required></div>`)
	b.WriteString(`<div class="form-row"><label>Password</label><input type="password" name="password" required></div>`)
	b.WriteString(`<button type="submit" class="primary">Sign in</button>`)
	b.WriteString(`</form></div></main>`)
	return html.Page("Sign in", b.String())
}
