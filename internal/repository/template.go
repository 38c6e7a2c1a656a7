package repository

import (
	"context"
	"fmt"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// TemplateRepository handles shift template data access
type TemplateRepository struct {
	db database.Database
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db database.Database) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create creates a new template
func (r *TemplateRepository) Create(ctx context.Context, t *model.ShiftTemplate) error {
	query := `
		CREATE shift_template CONTENT {
			name: $name,
			shift_type_id: type::record($shift_type_id),
			location: $location,
			start_time: $start_time,
			end_time: $end_time,
			capacity: $capacity,
			notes: IF $notes != NONE THEN $notes ELSE NONE END,
			is_flexible: $is_flexible,
			days_of_week: $days_of_week,
			active: $active,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	result, err := r.db.Query(ctx, query, templateVars(t))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: template name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := firstCreated[model.ShiftTemplate](result)
	if err != nil {
		return err
	}
	t.ID = created.ID
	t.CreatedOn = created.CreatedOn
	t.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	row, err := r.db.QueryOne(ctx, query, vars)
	return queryOneOrNil[model.ShiftTemplate](row, err)
}

// Update replaces a template's fields
func (r *TemplateRepository) Update(ctx context.Context, t *model.ShiftTemplate) error {
	query := `
		UPDATE type::record($id) SET
			name = $name,
			shift_type_id = type::record($shift_type_id),
			location = $location,
			start_time = $start_time,
			end_time = $end_time,
			capacity = $capacity,
			notes = $notes,
			is_flexible = $is_flexible,
			days_of_week = $days_of_week,
			active = $active,
			updated_on = time::now()
	`
	vars := templateVars(t)
	vars["id"] = t.ID

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: template name already exists", database.ErrDuplicate)
		}
		return err
	}
	return nil
}

// Delete deletes a template
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	vars := map[string]interface{}{"id": id}

	return r.db.Execute(ctx, query, vars)
}

// List returns templates ordered by name
func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]*model.ShiftTemplate, error) {
	query := `SELECT * FROM shift_template`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name ASC`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.ShiftTemplate](statementRows(result, 0))
}

func templateVars(t *model.ShiftTemplate) map[string]interface{} {
	days := t.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	return map[string]interface{}{
		"name":          t.Name,
		"shift_type_id": t.ShiftTypeID,
		"location":      t.Location,
		"start_time":    t.StartTime,
		"end_time":      t.EndTime,
		"capacity":      t.Capacity,
		"notes":         ptrToNone(t.Notes),
		"is_flexible":   t.IsFlexible,
		"days_of_week":  days,
		"active":        t.Active,
	}
}
