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

// PendingRegistrations exposes persistence for temporary accounts.
// An email may hold several concurrent rows; only the OTP submitted
// back selects which one survives.
type PendingRegistrations interface {
	Create(ctx context.Context, record *PendingRegistration) (*PendingRegistration, error)
	GetByEmail(ctx context.Context, email string) (*PendingRegistration, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*PendingRegistration, error)
	GetByEmailAndOTP(ctx context.Context, email, code string) (*PendingRegistration, error)
	GetByEmailAndOTPTx(ctx context.Context, tx bun.IDB, email, code string) (*PendingRegistration, error)
	GetByOTP(ctx context.Context, code string) (*PendingRegistration, error)
	GetByOTPTx(ctx context.Context, tx bun.IDB, code string) (*PendingRegistration, error)
	SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) (*PendingRegistration, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type pendingRegistrations struct {
	db *bun.DB
}

var _ PendingRegistrations = (*pendingRegistrations)(nil)

func NewPendingRegistrationsRepository(db *bun.DB) PendingRegistrations {
	return &pendingRegistrations{db}
}

func (p *pendingRegistrations) Create(ctx context.Context, record *PendingRegistration) (*PendingRegistration, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := p.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert pending registration")
	}
	return record, nil
}

// GetByEmail returns the most recently created temporary account for an
// email. Resend handlers use it so the newest OTP is the one replaced.
func (p *pendingRegistrations) GetByEmail(ctx context.Context, email string) (*PendingRegistration, error) {
	return p.GetByEmailTx(ctx, p.db, email)
}

func (p *pendingRegistrations) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*PendingRegistration, error) {
	record := &PendingRegistration{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select pending registration")
	}
	return record, nil
}

func (p *pendingRegistrations) GetByEmailAndOTP(ctx context.Context, email, code string) (*PendingRegistration, error) {
	return p.GetByEmailAndOTPTx(ctx, p.db, email, code)
}

func (p *pendingRegistrations) GetByEmailAndOTPTx(ctx context.Context, tx bun.IDB, email, code string) (*PendingRegistration, error) {
	record := &PendingRegistration{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Where("?TableAlias.otp = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select pending registration")
	}
	return record, nil
}

func (p *pendingRegistrations) GetByOTP(ctx context.Context, code string) (*PendingRegistration, error) {
	return p.GetByOTPTx(ctx, p.db, code)
}

func (p *pendingRegistrations) GetByOTPTx(ctx context.Context, tx bun.IDB, code string) (*PendingRegistration, error) {
	record := &PendingRegistration{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.otp = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select pending registration by OTP")
	}
	return record, nil
}

func (p *pendingRegistrations) SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) (*PendingRegistration, error) {
	record := &PendingRegistration{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select pending registration")
	}

	record.OTP = code
	record.OTPExpires = expires

	if _, err := p.db.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to refresh pending OTP")
	}
	return record, nil
}

func (p *pendingRegistrations) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if tx == nil {
		tx = p.db
	}
	res, err := tx.NewDelete().
		Model((*PendingRegistration)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete pending registration")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrPendingNotFound
	}
	return nil
}

// DeleteExpiredBefore removes temporary accounts whose OTP expired before
// the cutoff and returns how many rows went away.
func (p *pendingRegistrations) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := p.db.NewDelete().
		Model((*PendingRegistration)(nil)).
		Where("otp_expires < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to sweep pending registrations")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(rows), nil
}
