package taskvault

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrTodoNotFound is returned when a todo does not exist or belongs to
// someone else. Ownership misses are indistinguishable from absence on
// purpose.
var ErrTodoNotFound = errors.New("todo not found", errors.CategoryNotFound).
	WithTextCode("todo_not_found").
	WithCode(errors.CodeNotFound)

// Todos exposes persistence for per-user todo items. Every operation is
// scoped by owner: a user can never see or touch another user's rows.
type Todos interface {
	Create(ctx context.Context, todo *Todo) (*Todo, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Todo, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Todo, error)
	Update(ctx context.Context, todo *Todo) (*Todo, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type todos struct {
	db *bun.DB
}

var _ Todos = (*todos)(nil)

func NewTodosRepository(db *bun.DB) Todos {
	return &todos{db}
}

func (t *todos) Create(ctx context.Context, todo *Todo) (*Todo, error) {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	if todo.Priority == "" {
		todo.Priority = PriorityMedium
	}
	if _, err := t.db.NewInsert().Model(todo).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert todo")
	}
	return todo, nil
}

func (t *todos) GetByID(ctx context.Context, userID, id uuid.UUID) (*Todo, error) {
	record := &Todo{}
	err := t.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select todo")
	}
	return record, nil
}

func (t *todos) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Todo, error) {
	records := []*Todo{}
	err := t.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list todos")
	}
	return records, nil
}

func (t *todos) Update(ctx context.Context, todo *Todo) (*Todo, error) {
	now := time.Now()
	todo.UpdatedAt = &now
	res, err := t.db.NewUpdate().
		Model(todo).
		WherePK().
		Where("user_id = ?", todo.UserID).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update todo")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrTodoNotFound
	}
	return todo, nil
}

func (t *todos) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := t.db.NewDelete().
		Model((*Todo)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete todo")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrTodoNotFound
	}
	return nil
}
