package taskvault

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterModels wires the model relations into bun before any query runs.
func RegisterModels(db *bun.DB) {
	db.RegisterModel(
		(*User)(nil),
		(*PendingRegistration)(nil),
		(*Todo)(nil),
	)
}

// CreateSchema creates the backing tables if they do not exist yet.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	RegisterModels(db)

	models := []any{
		(*User)(nil),
		(*PendingRegistration)(nil),
		(*Todo)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create schema")
		}
	}

	_, err := db.NewCreateIndex().
		Model((*PendingRegistration)(nil)).
		Index("idx_pending_registrations_otp_expires").
		Column("otp_expires").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create sweep index")
	}

	_, err = db.NewCreateIndex().
		Model((*Todo)(nil)).
		Index("idx_todos_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create todos index")
	}

	return nil
}
