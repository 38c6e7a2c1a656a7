package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgo/shiftboard/api/internal/database"
	"github.com/forgo/shiftboard/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.UserRoleVolunteer
	}
	if user.Grade == "" {
		user.Grade = model.GradeGreen
	}
	if user.ConsentStatus == "" {
		user.ConsentStatus = model.ConsentNotRequired
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			hash: IF $hash != NONE THEN $hash ELSE NONE END,
			firstname: IF $firstname != NONE THEN $firstname ELSE NONE END,
			lastname: IF $lastname != NONE THEN $lastname ELSE NONE END,
			phone: IF $phone != NONE THEN $phone ELSE NONE END,
			role: $role,
			grade: $grade,
			date_of_birth: IF $date_of_birth != NONE THEN <datetime>$date_of_birth ELSE NONE END,
			consent_status: $consent_status,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"email":          strings.ToLower(user.Email),
		"hash":           ptrToNone(user.Hash),
		"firstname":      ptrToNone(user.Firstname),
		"lastname":       ptrToNone(user.Lastname),
		"phone":          ptrToNone(user.Phone),
		"role":           user.Role,
		"grade":          user.Grade,
		"date_of_birth":  optionalTime(user.DateOfBirth),
		"consent_status": user.ConsentStatus,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := firstCreated[model.User](result)
	if err != nil {
		return err
	}

	user.ID = created.ID
	user.Email = created.Email
	user.CreatedOn = created.CreatedOn
	user.UpdatedOn = created.UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	return parseUser(r.db.QueryOne(ctx, query, vars))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	vars := map[string]interface{}{"email": strings.ToLower(email)}

	return parseUser(r.db.QueryOne(ctx, query, vars))
}

// GetByIDs retrieves several users at once. Unknown ids are ignored.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	query := `SELECT * FROM user WHERE id IN $ids`
	vars := map[string]interface{}{"ids": recordIDs(ids)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseUsers(statementRows(result, 0))
}

// UpdateProfile writes the volunteer-editable profile fields plus the
// consent status, which follows the date of birth
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE type::record($id) SET
			firstname = $firstname,
			lastname = $lastname,
			phone = $phone,
			date_of_birth = IF $date_of_birth != NONE THEN <datetime>$date_of_birth ELSE NONE END,
			consent_status = $consent_status,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":             user.ID,
		"firstname":      ptrToNone(user.Firstname),
		"lastname":       ptrToNone(user.Lastname),
		"phone":          ptrToNone(user.Phone),
		"date_of_birth":  optionalTime(user.DateOfBirth),
		"consent_status": user.ConsentStatus,
	}

	return r.db.Execute(ctx, query, vars)
}

// UpdateLogin stamps the last login time
func (r *UserRepository) UpdateLogin(ctx context.Context, userID string) error {
	query := `UPDATE type::record($id) SET login_on = time::now()`
	vars := map[string]interface{}{"id": userID}

	return r.db.Execute(ctx, query, vars)
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	query := `UPDATE type::record($id) SET hash = $hash, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   userID,
		"hash": hash,
	}

	return r.db.Execute(ctx, query, vars)
}

// SetRole updates a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	query := `UPDATE type::record($id) SET role = $role, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   userID,
		"role": role,
	}

	return r.db.Execute(ctx, query, vars)
}

// SetGrade updates a volunteer's grade
func (r *UserRepository) SetGrade(ctx context.Context, userID string, grade model.VolunteerGrade) error {
	query := `UPDATE type::record($id) SET grade = $grade, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":    userID,
		"grade": grade,
	}

	return r.db.Execute(ctx, query, vars)
}

// SetConsent writes the parental consent fields
func (r *UserRepository) SetConsent(ctx context.Context, user *model.User) error {
	query := `
		UPDATE type::record($id) SET
			consent_status = $consent_status,
			parent_name = $parent_name,
			parent_email = $parent_email,
			consent_approved_by = IF $approved_by != NONE THEN type::record($approved_by) ELSE NONE END,
			consent_approved_on = IF $approved_on != NONE THEN <datetime>$approved_on ELSE NONE END,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":             user.ID,
		"consent_status": user.ConsentStatus,
		"parent_name":    ptrToNone(user.ParentName),
		"parent_email":   ptrToNone(user.ParentEmail),
		"approved_by":    ptrToNone(user.ConsentApprovedBy),
		"approved_on":    optionalTime(user.ConsentApprovedOn),
	}

	return r.db.Execute(ctx, query, vars)
}

// Delete deletes a user together with their signups, schedule,
// notifications and refresh tokens
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	batch := database.NewAtomicBatch().
		Add(`DELETE shift_signup WHERE user_id = type::record($id)`, map[string]interface{}{"id": id}).
		Add(`DELETE regular_volunteer WHERE user_id = type::record($id)`, map[string]interface{}{"id": id}).
		Add(`DELETE notification WHERE user_id = type::record($id)`, map[string]interface{}{"id": id}).
		Add(`DELETE refresh_token WHERE user = type::record($id)`, map[string]interface{}{"id": id}).
		Add(`DELETE type::record($id)`, map[string]interface{}{"id": id})

	return batch.Execute(ctx, r.db)
}

// List returns one page of users matching the filter and the total count
func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	filter.Normalize()

	var conditions []string
	vars := map[string]interface{}{
		"limit": filter.PageSize,
		"start": (filter.Page - 1) * filter.PageSize,
	}

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, `(string::contains(string::lowercase(email), $search)
			OR string::contains(string::lowercase(firstname ?? ''), $search)
			OR string::contains(string::lowercase(lastname ?? ''), $search))`)
		vars["search"] = strings.ToLower(s)
	}
	if filter.Role != nil {
		conditions = append(conditions, "role = $role")
		vars["role"] = *filter.Role
	}
	if filter.Grade != nil {
		conditions = append(conditions, "grade = $grade")
		vars["grade"] = *filter.Grade
	}
	if filter.ConsentStatus != nil {
		conditions = append(conditions, "consent_status = $consent_status")
		vars["consent_status"] = *filter.ConsentStatus
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT * FROM user` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() AS count FROM user` + where + ` GROUP ALL;`

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, err
	}

	users, err := parseUsers(statementRows(result, 0))
	if err != nil {
		return nil, 0, err
	}

	total := 0
	if rows := statementRows(result, 1); len(rows) > 0 {
		if data, ok := rows[0].(map[string]interface{}); ok {
			total = getInt(data, "count")
		}
	}
	return users, total, nil
}

// CountAdmins returns the number of admin accounts
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	query := `SELECT count() AS count FROM user WHERE role = 'admin' GROUP ALL`

	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

func parseUser(row interface{}, err error) (*model.User, error) {
	user, err := queryOneOrNil[model.User](row, err)
	if err != nil || user == nil {
		return user, err
	}
	// Hash is json:"-" so it has to be copied over by hand
	if data, ok := row.(map[string]interface{}); ok {
		if h, ok := data["hash"].(string); ok {
			user.Hash = &h
		}
	}
	return user, nil
}

func parseUsers(rows []interface{}) ([]*model.User, error) {
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		user, err := decodeOne[model.User](row)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
