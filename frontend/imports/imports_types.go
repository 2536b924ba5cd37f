package imports

// ImportSummary reports what one CSV upload did.
type ImportSummary struct {
	Inserted int
	Skipped  int
	Errors   int
}

type TemplateOption struct {
	ID   int64  `bun:"id"`
	Name string `bun:"name"`
}

type PageData struct {
	ProjectID   int64
	ProjectName string
	Message     string
	Templates   []TemplateOption
}
