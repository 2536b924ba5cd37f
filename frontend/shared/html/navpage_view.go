package html

import (
	"context"
	"io"

	sessioncontext "pipetrak/frontend/shared/context"
	"pipetrak/frontend/shared/nav"
)

type navPage struct {
	title      string
	activeHref string
	body       string
}

// NavPage wraps a page body in the layout with the top navigation bar.
// The session is taken from the render context so page builders do not
// need to thread it through.
func NavPage(title, activeHref, body string) Component {
	return navPage{title: title, activeHref: activeHref, body: body}
}

func (p navPage) Render(ctx context.Context, w io.Writer) error {
	topnav := ""
	if session, ok := sessioncontext.GetSessionFromContext(ctx); ok {
		topnav = nav.BuildTopNavData(session).Render(p.activeHref)
	}
	_, err := io.WriteString(w, RenderLayout(p.title, topnav+`<main>`+p.body+`</main>`))
	return err
}
