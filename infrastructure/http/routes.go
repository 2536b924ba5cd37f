package http

import (
	"net/http"

	adminusers "pipetrak/frontend/adminUsers"
	bulkpage "pipetrak/frontend/bulk"
	drawingspage "pipetrak/frontend/drawings"
	exportspage "pipetrak/frontend/exports"
	"pipetrak/frontend/help"
	importspage "pipetrak/frontend/imports"
	complabels "pipetrak/frontend/labels"
	"pipetrak/frontend/login"
	"pipetrak/frontend/milestones"
	projectspage "pipetrak/frontend/projects"
	"pipetrak/frontend/settings"
	"pipetrak/infrastructure/rbac"

	"github.com/go-chi/chi/v5"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.UserCache))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "PROJECTS_LIST_VIEW", http.MethodGet, "/tasker/projects")
	s.Rbac.Add(rbac.RoleEngineer, "PROJECTS_LIST_VIEW", http.MethodGet, "/tasker/projects")
	r.Get("/projects", projectspage.ProjectsPageQueryHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "PROJECTS_CREATE", http.MethodPost, "/tasker/projects")
	r.Post("/projects", projectspage.CreateProjectCommandHandler(s.DB, s.SessionCache, s.Audit))
	s.Rbac.Add(rbac.RoleAdmin, "PROJECTS_ACTIVATE", http.MethodPost, "/tasker/projects/*/activate")
	s.Rbac.Add(rbac.RoleEngineer, "PROJECTS_ACTIVATE", http.MethodPost, "/tasker/projects/*/activate")
	r.Post("/projects/{id}/activate", projectspage.ActivateProjectCommandHandler(s.DB, s.SessionCache, s.Audit))
	s.Rbac.Add(rbac.RoleAdmin, "PROJECTS_STATUS_EDIT", http.MethodPost, "/tasker/projects/*/status")
	r.Post("/projects/{id}/status", projectspage.UpdateProjectStatusCommandHandler(s.DB, s.SessionCache, s.Audit))
	s.Rbac.Add(rbac.RoleAdmin, "PROJECTS_LOGS_VIEW", http.MethodGet, "/tasker/projects/*/logs")
	r.Get("/projects/{id}/logs", projectspage.ProjectLogsPageQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_LIST_VIEW", http.MethodGet, "/tasker/admin/users")
	r.Get("/admin/users", adminusers.UsersPageQueryHandler(s.DB, s.UserCache))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_CREATE", http.MethodPost, "/tasker/admin/users")
	r.Post("/admin/users", adminusers.CreateUserCommandHandler(s.DB, s.UserCache))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_VIEWER_ACCESS_EDIT", http.MethodPost, "/tasker/admin/users/viewer-access")
	r.Post("/admin/users/viewer-access", adminusers.UpdateViewerAccessCommandHandler(s.DB, s.UserCache))
	return r
}

// RegisterFrontendRoutes registers authenticated routes.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.RegisterDrawingRoutes(r)
	s.RegisterMilestoneRoutes(r)
	s.RegisterBulkRoutes(r)
	s.RegisterImportRoutes(r)
	s.RegisterExportRoutes(r)

	s.Rbac.Add(rbac.RoleAdmin, "SETTINGS_NOTIFICATIONS_VIEW", http.MethodGet, "/tasker/settings/notifications")
	s.Rbac.Add(rbac.RoleEngineer, "SETTINGS_NOTIFICATIONS_VIEW", http.MethodGet, "/tasker/settings/notifications")
	r.Get("/settings/notifications", settings.NotificationSettingsPageHandler(s.DB))
	s.Rbac.Add(rbac.RoleAdmin, "SETTINGS_NOTIFICATIONS_EDIT", http.MethodPost, "/tasker/settings/notifications")
	s.Rbac.Add(rbac.RoleEngineer, "SETTINGS_NOTIFICATIONS_EDIT", http.MethodPost, "/tasker/settings/notifications")
	r.Post("/settings/notifications", settings.NotificationSettingsUpdateHandler(s.DB))

	for _, role := range []string{rbac.RoleAdmin, rbac.RoleEngineer, rbac.RoleViewer} {
		s.Rbac.Add(role, "HELP_VIEW", http.MethodGet, "/tasker/help")
	}
	r.Get("/help", help.HelpPageQueryHandler())

	return r
}

func (s *Server) RegisterDrawingRoutes(r chi.Router) {
	for _, role := range []string{rbac.RoleAdmin, rbac.RoleEngineer, rbac.RoleViewer} {
		s.Rbac.Add(role, "DRAWINGS_LIST_VIEW", http.MethodGet, "/tasker/drawings")
		s.Rbac.Add(role, "DRAWING_DETAIL_VIEW", http.MethodGet, "/tasker/drawings/*")
	}
	r.Get("/drawings", drawingspage.DrawingsPageQueryHandler(s.DB))
	r.Get("/drawings/{id}", drawingspage.DrawingDetailPageQueryHandler(s.DB, s.Tracker))

	s.Rbac.Add(rbac.RoleAdmin, "DRAWING_CREATE", http.MethodPost, "/tasker/drawings")
	s.Rbac.Add(rbac.RoleEngineer, "DRAWING_CREATE", http.MethodPost, "/tasker/drawings")
	r.Post("/drawings", drawingspage.CreateDrawingCommandHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "DRAWING_LABELS_VIEW", http.MethodGet, "/tasker/drawings/*/labels.pdf")
	s.Rbac.Add(rbac.RoleEngineer, "DRAWING_LABELS_VIEW", http.MethodGet, "/tasker/drawings/*/labels.pdf")
	r.Get("/drawings/{id}/labels.pdf", complabels.DrawingLabelsPDFHandler(s.DB))
}

func (s *Server) RegisterMilestoneRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleAdmin, "MILESTONE_UPDATE", http.MethodPost, "/tasker/api/components/*/milestones/*")
	s.Rbac.Add(rbac.RoleEngineer, "MILESTONE_UPDATE", http.MethodPost, "/tasker/api/components/*/milestones/*")
	r.Post("/api/components/{id}/milestones/{milestoneID}", milestones.UpdateMilestoneCommandHandler(s.DB, s.Audit, s.Tracker))
}

func (s *Server) RegisterBulkRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleAdmin, "BULK_UPDATE_VIEW", http.MethodGet, "/tasker/bulk")
	s.Rbac.Add(rbac.RoleEngineer, "BULK_UPDATE_VIEW", http.MethodGet, "/tasker/bulk")
	r.Get("/bulk", bulkpage.BulkUpdatePageQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "BULK_UPDATE_PERFORM", http.MethodPost, "/tasker/bulk")
	s.Rbac.Add(rbac.RoleEngineer, "BULK_UPDATE_PERFORM", http.MethodPost, "/tasker/bulk")
	r.Post("/bulk", bulkpage.PerformBulkCommandHandler(s.DB, s.Audit, s.BulkResults))

	s.Rbac.Add(rbac.RoleAdmin, "BULK_RESULT_VIEW", http.MethodGet, "/tasker/bulk/results/*")
	s.Rbac.Add(rbac.RoleEngineer, "BULK_RESULT_VIEW", http.MethodGet, "/tasker/bulk/results/*")
	r.Get("/bulk/results/{jobID}", bulkpage.BulkResultPageQueryHandler(s.BulkResults))

	s.Rbac.Add(rbac.RoleAdmin, "BULK_RETRY", http.MethodPost, "/tasker/bulk/results/*/retry")
	s.Rbac.Add(rbac.RoleEngineer, "BULK_RETRY", http.MethodPost, "/tasker/bulk/results/*/retry")
	r.Post("/bulk/results/{jobID}/retry", bulkpage.RetryBulkCommandHandler(s.DB, s.Audit, s.BulkResults))
}

func (s *Server) RegisterImportRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleAdmin, "COMPONENT_IMPORT_VIEW", http.MethodGet, "/tasker/imports")
	s.Rbac.Add(rbac.RoleEngineer, "COMPONENT_IMPORT_VIEW", http.MethodGet, "/tasker/imports")
	r.Get("/imports", importspage.ImportPageQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "COMPONENT_IMPORT", http.MethodPost, "/tasker/imports")
	s.Rbac.Add(rbac.RoleEngineer, "COMPONENT_IMPORT", http.MethodPost, "/tasker/imports")
	r.Post("/imports", importspage.ImportComponentsCommandHandler(s.DB, s.Audit))
}

func (s *Server) RegisterExportRoutes(r chi.Router) {
	s.Rbac.Add(rbac.RoleAdmin, "EXPORTS_VIEW", http.MethodGet, "/tasker/exports")
	s.Rbac.Add(rbac.RoleEngineer, "EXPORTS_VIEW", http.MethodGet, "/tasker/exports")
	r.Get("/exports", exportspage.ExportsPageQueryHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "EXPORT_COMPONENTS", http.MethodGet, "/tasker/exports/components.csv")
	s.Rbac.Add(rbac.RoleEngineer, "EXPORT_COMPONENTS", http.MethodGet, "/tasker/exports/components.csv")
	r.Get("/exports/components.csv", exportspage.ComponentsExportCSVHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "EXPORT_DRAWING", http.MethodGet, "/tasker/exports/drawings/*")
	s.Rbac.Add(rbac.RoleEngineer, "EXPORT_DRAWING", http.MethodGet, "/tasker/exports/drawings/*")
	r.Get("/exports/drawings/{id}.csv", exportspage.DrawingExportCSVHandler(s.DB))

	s.Rbac.Add(rbac.RoleAdmin, "EXPORT_DRAWING_STATUS", http.MethodGet, "/tasker/exports/drawing-status.csv")
	s.Rbac.Add(rbac.RoleEngineer, "EXPORT_DRAWING_STATUS", http.MethodGet, "/tasker/exports/drawing-status.csv")
	r.Get("/exports/drawing-status.csv", exportspage.DrawingStatusCSVHandler(s.DB))
}
