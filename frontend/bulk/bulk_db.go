package bulk

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"pipetrak/frontend/milestones"
	"pipetrak/infrastructure/audit"
	"pipetrak/infrastructure/sqlite"
	"pipetrak/models"
)

// LoadSelection loads the selected components with their milestones,
// ordered by drawing and code so the screen is stable across reloads.
func LoadSelection(ctx context.Context, db *sqlite.DB, componentIDs []int64) ([]models.Component, error) {
	components := make([]models.Component, 0, len(componentIDs))
	if len(componentIDs) == 0 {
		return components, nil
	}
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&components).
			Relation("Milestones").
			Where("c.id IN (?)", bun.In(componentIDs)).
			OrderExpr("c.drawing_id ASC, c.code ASC").
			Scan(ctx)
	})
	return components, err
}

// GroupByTemplate slices the selection by milestone template, keeping
// the order templates were first seen in the selection. Each group
// carries the union of its members' milestone names, also in first-seen
// order.
func GroupByTemplate(ctx context.Context, db *sqlite.DB, components []models.Component) ([]TemplateGroup, error) {
	byTemplate := make(map[int64][]models.Component)
	templateIDs := make([]int64, 0)
	for _, c := range components {
		if _, seen := byTemplate[c.TemplateID]; !seen {
			templateIDs = append(templateIDs, c.TemplateID)
		}
		byTemplate[c.TemplateID] = append(byTemplate[c.TemplateID], c)
	}

	names := make(map[int64]string, len(templateIDs))
	if len(templateIDs) > 0 {
		rows := make([]struct {
			ID   int64  `bun:"id"`
			Name string `bun:"name"`
		}, 0, len(templateIDs))
		err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
			return tx.NewRaw(`SELECT id, name FROM milestone_templates WHERE id IN (?)`, bun.In(templateIDs)).Scan(ctx, &rows)
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			names[row.ID] = row.Name
		}
	}

	groups := make([]TemplateGroup, 0, len(templateIDs))
	for _, id := range templateIDs {
		name := names[id]
		if name == "" {
			name = fmt.Sprintf("Template %d", id)
		}
		members := byTemplate[id]
		groups = append(groups, TemplateGroup{
			TemplateID:          id,
			TemplateName:        name,
			Components:          members,
			AvailableMilestones: milestoneUnion(members),
		})
	}
	return groups, nil
}

// milestoneUnion collects milestone names across the members, ordered
// by each component's milestone order, first occurrence wins.
func milestoneUnion(components []models.Component) []string {
	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, c := range components {
		ms := make([]models.ComponentMilestone, len(c.Milestones))
		copy(ms, c.Milestones)
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].SortOrder < ms[j].SortOrder })
		for _, m := range ms {
			key := strings.ToUpper(m.Name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, m.Name)
		}
	}
	return union
}

// CommonMilestones returns milestone names present in every group's
// available set, in the first group's order. Quick mode may only offer
// a milestone that clears this intersection.
func CommonMilestones(groups []TemplateGroup) []string {
	if len(groups) == 0 {
		return nil
	}

	common := make([]string, 0, len(groups[0].AvailableMilestones))
	for _, name := range groups[0].AvailableMilestones {
		inAll := true
		for _, group := range groups[1:] {
			if !containsNameFold(group.AvailableMilestones, name) {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, name)
		}
	}
	return common
}

func containsNameFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// ValidateRequest checks the batch against the template groups before
// any item runs. The first problem found is returned as a
// human-readable error.
func ValidateRequest(groups []TemplateGroup, req Request) error {
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case milestones.ActionComplete, milestones.ActionUncomplete, milestones.ActionSet:
	default:
		return fmt.Errorf("invalid action: %s", req.Action)
	}

	if req.Mode == ModeAdvanced {
		return validateAdvanced(groups, req)
	}
	return validateQuick(groups, req)
}

func validateQuick(groups []TemplateGroup, req Request) error {
	if len(req.ComponentIDs) == 0 {
		return fmt.Errorf("no components selected")
	}
	name := strings.TrimSpace(req.MilestoneName)
	if name == "" {
		return fmt.Errorf("milestone is required")
	}
	for _, group := range groups {
		if !containsNameFold(group.AvailableMilestones, name) {
			return fmt.Errorf("milestone %q is not available for the %s group; use the per-group form", name, group.TemplateName)
		}
	}
	return nil
}

func validateAdvanced(groups []TemplateGroup, req Request) error {
	if len(req.Selections) == 0 {
		return fmt.Errorf("no milestone selected in any group")
	}

	byTemplate := make(map[int64]TemplateGroup, len(groups))
	for _, group := range groups {
		byTemplate[group.TemplateID] = group
	}

	pairs := 0
	for _, sel := range req.Selections {
		group, ok := byTemplate[sel.TemplateID]
		if !ok {
			return fmt.Errorf("selection references template %d which is not part of this batch", sel.TemplateID)
		}
		for _, name := range sel.MilestoneNames {
			if !containsNameFold(group.AvailableMilestones, name) {
				return fmt.Errorf("milestone %q is not available for the %s group", name, group.TemplateName)
			}
		}
		pairs += len(sel.ComponentIDs) * len(sel.MilestoneNames)
	}
	if pairs == 0 {
		return fmt.Errorf("no milestone selected in any group")
	}
	return nil
}

// itemRef is one (component, milestone) pair the batch will attempt.
type itemRef struct {
	componentID   int64
	milestoneName string
}

func resolvePairs(req Request) []itemRef {
	if req.Mode == ModeAdvanced {
		pairs := make([]itemRef, 0)
		for _, sel := range req.Selections {
			for _, componentID := range sel.ComponentIDs {
				for _, name := range sel.MilestoneNames {
					pairs = append(pairs, itemRef{componentID: componentID, milestoneName: name})
				}
			}
		}
		return pairs
	}

	pairs := make([]itemRef, 0, len(req.ComponentIDs))
	for _, componentID := range req.ComponentIDs {
		pairs = append(pairs, itemRef{componentID: componentID, milestoneName: req.MilestoneName})
	}
	return pairs
}

// RequestComponentIDs returns every component id the request touches,
// deduplicated, in request order.
func RequestComponentIDs(req Request) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(req.ComponentIDs))
	appendID := func(id int64) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range req.ComponentIDs {
		appendID(id)
	}
	for _, sel := range req.Selections {
		for _, id := range sel.ComponentIDs {
			appendID(id)
		}
	}
	return ids
}

// Perform runs the batch. Every pair gets its own transaction: one item
// failing never rolls back or aborts the others, and the batch always
// finishes with len(Successful) plus len(Failures) equal to Total.
func Perform(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userID int64, req Request) (Result, error) {
	componentIDs := RequestComponentIDs(req)
	components, err := LoadSelection(ctx, db, componentIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load selection: %w", err)
	}
	groups, err := GroupByTemplate(ctx, db, components)
	if err != nil {
		return Result{}, fmt.Errorf("load templates: %w", err)
	}
	if err := ValidateRequest(groups, req); err != nil {
		return Result{}, err
	}

	pairs := resolvePairs(req)
	result := Result{
		Request:   req,
		Total:     len(pairs),
		StartedAt: time.Now(),
	}

	codes, templates, err := lookupComponentMeta(ctx, db, componentIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load component metadata: %w", err)
	}

	for _, pair := range pairs {
		_, err := milestones.ApplyUpdate(ctx, db, auditSvc, userID, milestones.UpdateInput{
			ComponentID:   pair.componentID,
			MilestoneName: pair.milestoneName,
			Action:        req.Action,
			Value:         req.Value,
		})
		if err != nil {
			result.Failures = append(result.Failures, Failure{
				ComponentID:   pair.componentID,
				ComponentCode: codes[pair.componentID],
				MilestoneName: pair.milestoneName,
				TemplateID:    templates[pair.componentID],
				Message:       err.Error(),
			})
			continue
		}
		result.Successful = append(result.Successful, Success{
			ComponentID:   pair.componentID,
			ComponentCode: codes[pair.componentID],
			MilestoneName: pair.milestoneName,
		})
	}

	result.FinishedAt = time.Now()
	return result, nil
}

// FailureKey identifies one failure for the retry form.
func FailureKey(f Failure) string {
	return fmt.Sprintf("%d|%s", f.ComponentID, f.MilestoneName)
}

// Retry re-runs only the selected failures of a previous batch,
// identified by their FailureKey. Unselected failures keep their prior
// error untouched. A component whose template changed since the
// original run no longer belongs to the group the user was looking at,
// so its item is left out of the dispatch with the prior error
// retained. A metadata read failure aborts the whole retry: without the
// current template ids every item would be misrouted.
func Retry(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userID int64, previous Result, selectedKeys []string) (Result, error) {
	selected := make(map[string]struct{}, len(selectedKeys))
	for _, key := range selectedKeys {
		selected[key] = struct{}{}
	}

	retryIDs := make([]int64, 0, len(previous.Failures))
	for _, f := range previous.Failures {
		if _, ok := selected[FailureKey(f)]; ok {
			retryIDs = append(retryIDs, f.ComponentID)
		}
	}
	codes, templates, err := lookupComponentMeta(ctx, db, retryIDs)
	if err != nil {
		return Result{}, fmt.Errorf("load component metadata: %w", err)
	}

	result := Result{
		JobID:      previous.JobID,
		Request:    previous.Request,
		Total:      previous.Total,
		Successful: append([]Success(nil), previous.Successful...),
		StartedAt:  time.Now(),
	}

	for _, failure := range previous.Failures {
		if _, ok := selected[FailureKey(failure)]; !ok {
			result.Failures = append(result.Failures, failure)
			continue
		}

		currentTemplate, exists := templates[failure.ComponentID]
		if exists && failure.TemplateID > 0 && currentTemplate != failure.TemplateID {
			result.Failures = append(result.Failures, failure)
			continue
		}

		_, err := milestones.ApplyUpdate(ctx, db, auditSvc, userID, milestones.UpdateInput{
			ComponentID:   failure.ComponentID,
			MilestoneName: failure.MilestoneName,
			Action:        previous.Request.Action,
			Value:         previous.Request.Value,
		})
		if err != nil {
			code := codes[failure.ComponentID]
			if code == "" {
				code = failure.ComponentCode
			}
			result.Failures = append(result.Failures, Failure{
				ComponentID:   failure.ComponentID,
				ComponentCode: code,
				MilestoneName: failure.MilestoneName,
				TemplateID:    currentTemplate,
				Message:       err.Error(),
			})
			continue
		}
		result.Successful = append(result.Successful, Success{
			ComponentID:   failure.ComponentID,
			ComponentCode: codes[failure.ComponentID],
			MilestoneName: failure.MilestoneName,
		})
	}

	result.FinishedAt = time.Now()
	return result, nil
}

func lookupComponentMeta(ctx context.Context, db *sqlite.DB, componentIDs []int64) (map[int64]string, map[int64]int64, error) {
	codes := make(map[int64]string, len(componentIDs))
	templates := make(map[int64]int64, len(componentIDs))
	if len(componentIDs) == 0 {
		return codes, templates, nil
	}

	rows := make([]struct {
		ID         int64  `bun:"id"`
		Code       string `bun:"code"`
		TemplateID int64  `bun:"template_id"`
	}, 0, len(componentIDs))
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id, code, template_id FROM components WHERE id IN (?)`, bun.In(componentIDs)).Scan(ctx, &rows)
	})
	if err != nil {
		return nil, nil, err
	}
	for _, row := range rows {
		codes[row.ID] = row.Code
		templates[row.ID] = row.TemplateID
	}
	return codes, templates, nil
}
