package adminusers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"pipetrak/frontend/login"
	"pipetrak/infrastructure/argon"
	projectinfra "pipetrak/infrastructure/project"
	"pipetrak/infrastructure/rbac"
	"pipetrak/infrastructure/sqlite"
)

var (
	ErrUsernameRequired      = errors.New("username is required")
	ErrPasswordRequired      = errors.New("password is required")
	ErrInvalidRole           = errors.New("role must be admin, engineer or viewer")
	ErrViewerProjectRequired = errors.New("viewer accounts need at least one project")
	ErrUsernameExists        = errors.New("username already exists")
)

func LoadUsersPageData(ctx context.Context, db *sqlite.DB) (PageData, error) {
	data := PageData{
		Users:    make([]UserView, 0),
		Projects: make([]ProjectOption, 0),
	}

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewRaw(`
SELECT u.id, u.username, u.role,
       COALESCE(GROUP_CONCAT(p.name, ', '), '') AS viewer_projects
FROM users u
LEFT JOIN viewer_project_access vpa ON vpa.user_id = u.id
LEFT JOIN projects p ON p.id = vpa.project_id
GROUP BY u.id
ORDER BY u.id ASC`).Scan(ctx, &data.Users); err != nil {
			return err
		}
		return tx.NewRaw(`SELECT id, name AS label FROM projects ORDER BY name ASC`).Scan(ctx, &data.Projects)
	})
	return data, err
}

// CreateUser adds an account. Viewer accounts also get their project
// access rows written so they can log in and see something.
func CreateUser(ctx context.Context, db *sqlite.DB, username, password, role string, viewerProjectIDs []int64) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrPasswordRequired
	}
	if err := login.ValidatePasswordPolicy(password); err != nil {
		return err
	}

	switch role {
	case rbac.RoleAdmin, rbac.RoleEngineer, rbac.RoleViewer:
	default:
		return ErrInvalidRole
	}
	if role == rbac.RoleViewer && len(viewerProjectIDs) == 0 {
		return ErrViewerProjectRequired
	}

	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}

	var userID int64
	now := time.Now()
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var count int
		if err := tx.NewRaw(`SELECT COUNT(1) FROM users WHERE LOWER(username) = ?`, strings.ToLower(username)).Scan(ctx, &count); err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameExists
		}
		res, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`, username, hash, role, now, now)
		if err != nil {
			return err
		}
		userID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err
	}

	if role == rbac.RoleViewer {
		return projectinfra.SetViewerProjectAccess(ctx, db, userID, viewerProjectIDs)
	}
	return nil
}

// SetViewerAccess replaces a viewer's project assignments.
func SetViewerAccess(ctx context.Context, db *sqlite.DB, userID int64, projectIDs []int64) error {
	if len(projectIDs) == 0 {
		return ErrViewerProjectRequired
	}
	return projectinfra.SetViewerProjectAccess(ctx, db, userID, projectIDs)
}
