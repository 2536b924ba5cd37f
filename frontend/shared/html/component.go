package html

import (
	"context"
	"io"
)

// Component is a renderable page or fragment.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

type page struct {
	title string
	body  string
}

// Page wraps a prebuilt body in the standard document layout.
func Page(title, body string) Component {
	return page{title: title, body: body}
}

func (p page) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, RenderLayout(p.title, p.body))
	return err
}

// Raw renders a prebuilt HTML fragment without the layout.
func Raw(markup string) Component {
	return raw(markup)
}

type raw string

func (r raw) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(r))
	return err
}
