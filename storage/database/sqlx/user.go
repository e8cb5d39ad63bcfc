package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/user"
)

var userColumns = []string{"id", "name", "username", "email", "role", "image_url", "is_active", "created_at", "updated_at"}

type userRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Username  null.String `db:"username"`
	Email     null.String `db:"email"`
	Role      string      `db:"role"`
	ImageURL  null.String `db:"image_url"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:        usr.ID,
		Name:      usr.Name,
		Username:  null.NewString(usr.Username, usr.Username != ""),
		Email:     null.NewString(usr.Email, usr.Email != ""),
		Role:      usr.Role,
		ImageURL:  null.NewString(usr.ImageURL, usr.ImageURL != ""),
		IsActive:  usr.Active(),
		CreatedAt: usr.CreatedAt.UTC(),
		UpdatedAt: usr.UpdatedAt.UTC(),
	}
}

func (row userRow) user() user.User {
	usr := user.User{
		ID:        row.ID,
		Name:      row.Name,
		Username:  row.Username.String,
		Email:     row.Email.String,
		Role:      row.Role,
		ImageURL:  row.ImageURL.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	usr.SetActive(row.IsActive)
	return usr
}

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{baseRepository{db: db}}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	var or sq.Or
	if username != "" {
		or = append(or, sq.Eq{"username": username})
	}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	where := sq.And{or}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		where = append(where, sq.NotEq{"id": ids})
	}

	query, args, err := psql.Select("username", "email").From("users").Where(where).Limit(2).ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var rows []userRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	row := toUserRow(usr)

	query, args, err := psql.Insert("users").Columns(userColumns...).
		Values(row.ID, row.Name, row.Username, row.Email, row.Role, row.ImageURL, row.IsActive, row.CreatedAt, row.UpdatedAt).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "users_pkey") {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.user(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	qs := psql.Select(userColumns...).From("users")

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			qs = qs.Where(sq.Or{sq.ILike{"name": val}, sq.ILike{"username": val}, sq.ILike{"email": val}})
		}
		if len(filter.Roles) > 0 {
			qs = qs.Where(sq.Eq{"role": filter.Roles})
		}
		if filter.IsActive != nil {
			qs = qs.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			qs = qs.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			qs = qs.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
		if len(filter.ExcludeIDs) > 0 {
			qs = qs.Where(sq.NotEq{"id": filter.ExcludeIDs})
		}
	}

	for _, ord := range ordering {
		qs = qs.OrderBy(ord.String())
	}
	qs = qs.OrderBy("id ASC")

	query, args, err := qs.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	qs := psql.Select(userColumns...).From("users")
	switch {
	case filter.ID != "":
		qs = qs.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		qs = qs.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		qs = qs.Where(sq.Eq{"email": filter.Email})
	default:
		return user.User{}, user.ErrNotFound
	}

	query, args, err := qs.Limit(1).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user query")
	}
	var row userRow
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := toUserRow(usr)
	query, args, err := psql.Update("users").SetMap(map[string]interface{}{
		"name":       row.Name,
		"username":   row.Username,
		"email":      row.Email,
		"role":       row.Role,
		"image_url":  row.ImageURL,
		"is_active":  row.IsActive,
		"updated_at": row.UpdatedAt,
	}).Where(sq.Eq{"id": row.ID}).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building update query")
	}

	cnt, err := rowsAffected(repo.getExec(exec).ExecContext(ctx, query, args...))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.user(), nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := psql.Delete("users").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	cnt, err := rowsAffected(repo.getExec(exec).ExecContext(ctx, query, args...))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return cnt, nil
}
