package taskvault

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserListCriteria narrows and pages the admin user listing.
type UserListCriteria struct {
	Offset    int
	Limit     int
	SortAsc   bool
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Users exposes persistence for permanent accounts
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByOTP(ctx context.Context, code string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) error
	ClearOTP(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, criteria UserListCriteria) ([]*User, error)
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select user by id")
	}
	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select user by email")
	}
	return record, nil
}

// GetByOTP finds the account holding an outstanding reset code. The
// legacy client posts the code without an email, so this is the only
// handle we have.
func (a *users) GetByOTP(ctx context.Context, code string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.otp = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select user by OTP")
	}
	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email existence")
	}
	return exists, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = DefaultProfilePicture
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert user")
	}
	return user, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	now := time.Now()
	user.UpdatedAt = &now
	res, err := tx.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update user")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (a *users) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("otp = NULL").
		Set("otp_expires = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to reset password")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a *users) SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("otp = ?", code).
		Set("otp_expires = ?", expires).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to store user OTP")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a *users) ClearOTP(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if tx == nil {
		tx = a.db
	}
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("otp = NULL").
		Set("otp_expires = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear user OTP")
	}
	return nil
}

func (a *users) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*User, error) {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("is_blocked = ?", blocked).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update block flag")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrUserNotFound
	}
	return a.GetByID(ctx, id)
}

func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a *users) List(ctx context.Context, criteria UserListCriteria) ([]*User, error) {
	records := []*User{}

	q := a.db.NewSelect().Model(&records)

	if criteria.Search != "" {
		needle := strings.TrimSpace(criteria.Search)
		term := "%" + needle + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			sq = sq.
				Where("?TableAlias.username LIKE ?", term).
				WhereOr("?TableAlias.email LIKE ?", term).
				WhereOr("?TableAlias.user_role LIKE ?", term)
			// "blocked" as a search term surfaces blocked accounts.
			if strings.EqualFold(needle, "blocked") {
				sq = sq.WhereOr("?TableAlias.is_blocked = ?", true)
			}
			return sq
		})
	}

	if criteria.StartDate != nil {
		q = q.Where("?TableAlias.created_at >= ?", criteria.StartDate)
	}

	if criteria.EndDate != nil {
		q = q.Where("?TableAlias.created_at <= ?", criteria.EndDate)
	}

	if criteria.SortAsc {
		q = q.Order("created_at ASC")
	} else {
		q = q.Order("created_at DESC")
	}

	if criteria.Limit > 0 {
		q = q.Limit(criteria.Limit)
	}
	if criteria.Offset > 0 {
		q = q.Offset(criteria.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (a *users) Count(ctx context.Context) (int, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count users")
	}
	return count, nil
}

func (a *users) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.created_at >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count recent users")
	}
	return count, nil
}
