package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Workflow types supported for component milestones.
const (
	WorkflowDiscrete   = "MILESTONE_DISCRETE"
	WorkflowPercentage = "MILESTONE_PERCENTAGE"
	WorkflowQuantity   = "MILESTONE_QUANTITY"
)

// Component roll-up statuses derived from milestone completion.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// User represents an authenticated app user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	ActiveProjectID   *int64         `bun:"active_project_id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Project is one industrial construction project; all drawings and
// components are scoped to a project.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	ProjectDate time.Time `bun:"project_date,notnull"`
	ClientName  string    `bun:"client_name,notnull"`
	Code        string    `bun:"code,unique,notnull"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Drawing is one isometric drawing grouping piping components.
type Drawing struct {
	bun.BaseModel `bun:"table:drawings,alias:d"`

	ID        int64     `bun:"id,pk,autoincrement"`
	ProjectID int64     `bun:"project_id,notnull"`
	Number    string    `bun:"number,notnull"`
	Title     string    `bun:"title"`
	Revision  string    `bun:"revision"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// MilestoneTemplate names the set of milestones applied to a class of
// components; it also groups components for bulk operations.
type MilestoneTemplate struct {
	bun.BaseModel `bun:"table:milestone_templates,alias:mt"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,unique,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// TemplateMilestone is one step definition inside a milestone template.
// Instantiated as ComponentMilestone rows when a component is created.
type TemplateMilestone struct {
	bun.BaseModel `bun:"table:template_milestones,alias:tm"`

	ID         int64  `bun:"id,pk,autoincrement"`
	TemplateID int64  `bun:"template_id,notnull"`
	Name       string `bun:"name,notnull"`
	SortOrder  int    `bun:"sort_order,notnull"`
	Weight     int    `bun:"weight,notnull"`
}

// Component is a physical piping item tracked through its milestones.
// CompletionPercent and Status are derived and rewritten on every
// successful milestone update.
type Component struct {
	bun.BaseModel `bun:"table:components,alias:c"`

	ID                int64     `bun:"id,pk,autoincrement"`
	ProjectID         int64     `bun:"project_id,notnull"`
	DrawingID         int64     `bun:"drawing_id,notnull"`
	TemplateID        int64     `bun:"template_id,notnull"`
	Code              string    `bun:"code,notnull"`
	ComponentType     string    `bun:"component_type,notnull"`
	WorkflowType      string    `bun:"workflow_type,notnull"`
	Unit              string    `bun:"unit"`
	CompletionPercent int       `bun:"completion_percent,notnull,default:0"`
	Status            string    `bun:"status,notnull,default:'NOT_STARTED'"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Milestones []ComponentMilestone `bun:"rel:has-many,join:id=component_id"`
}

// ComponentMilestone is one step of a component's installation workflow.
// Identity, SortOrder and Weight are fixed at creation; only the
// completion fields mutate. Which completion field is authoritative is
// decided by the owning component's workflow type.
type ComponentMilestone struct {
	bun.BaseModel `bun:"table:component_milestones,alias:cm"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	ComponentID        int64      `bun:"component_id,notnull"`
	Name               string     `bun:"name,notnull"`
	SortOrder          int        `bun:"sort_order,notnull"`
	Weight             int        `bun:"weight,notnull"`
	IsCompleted        bool       `bun:"is_completed,notnull,default:false"`
	PercentageComplete int        `bun:"percentage_complete,notnull,default:0"`
	QuantityComplete   float64    `bun:"quantity_complete,notnull,default:0"`
	QuantityTotal      float64    `bun:"quantity_total,notnull,default:0"`
	CompletedAt        *time.Time `bun:"completed_at"`
	CompletedByUserID  *int64     `bun:"completed_by_user_id"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
