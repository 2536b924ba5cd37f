package html

import (
	"fmt"
	"html"
)

func RenderLayout(title, body string) string {
	return fmt.Sprintf("<!doctype html><html><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>%s</title><link rel=\"stylesheet\" href=\"/assets/app.css\"></head><body>%s%s</body></html>", html.EscapeString(title), body, CSRFFormScript())
}

// Escape is a shorthand used by the page builders.
func Escape(s string) string {
	return html.EscapeString(s)
}

// ErrorBanner renders a dismissable error message, empty input renders nothing.
func ErrorBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="banner banner-error">%s</div>`, html.EscapeString(msg))
}

// NoticeBanner renders a success/notice message, empty input renders nothing.
func NoticeBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="banner banner-notice">%s</div>`, html.EscapeString(msg))
}
