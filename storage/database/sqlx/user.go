package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Type         string    `db:"type"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

const userColumns = `id, name, email, type, is_active, password_hash, created_at, updated_at, last_login`

func toUserRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Type:         usr.Type,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Type:         r.Type,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND NOT (id::text = ANY($2)))`,
		email, pq.StringArray(excludedIDs),
	)
	if err != nil {
		return wrapErr(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO "user" (`+userColumns+`)
		VALUES (:id, :name, :email, :type, :is_active, :password_hash, :created_at, :updated_at, :last_login)`,
		toUserRow(usr),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, wrapErr(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "?"
	}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, "(name ILIKE "+arg(val)+" OR email ILIKE "+arg(val)+")")
		}
		if len(filter.Types) > 0 {
			where = append(where, "type = ANY("+arg(pq.StringArray(filter.Types))+")")
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = "+arg(*filter.IsActive))
		}
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, "created_at ASC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrapErr(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		row userRow
		err error
	)
	switch {
	case filter.ID != "":
		if _, err = uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE "user" SET name = :name, email = :email, type = :type, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		toUserRow(usr),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, wrapErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id::text = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, wrapErr(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(err, "deleting users")
	}
	return int(cnt), nil
}
