package adminusers

type UserView struct {
	ID             int64  `bun:"id"`
	Username       string `bun:"username"`
	Role           string `bun:"role"`
	ViewerProjects string `bun:"viewer_projects"`
}

type ProjectOption struct {
	ID    int64  `bun:"id"`
	Label string `bun:"label"`
}

type PageData struct {
	Users        []UserView
	Projects     []ProjectOption
	Status       string
	ErrorMessage string
}
