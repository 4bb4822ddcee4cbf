package taskvault

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() Users
	PendingRegistrations() PendingRegistrations
	Todos() Todos
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type repositoryManager struct {
	db      *bun.DB
	users   Users
	pending PendingRegistrations
	todos   Todos
}

var _ RepositoryManager = (*repositoryManager)(nil)

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &repositoryManager{
		db:      db,
		users:   NewUsersRepository(db),
		pending: NewPendingRegistrationsRepository(db),
		todos:   NewTodosRepository(db),
	}
}

func (m *repositoryManager) Users() Users {
	return m.users
}

func (m *repositoryManager) PendingRegistrations() PendingRegistrations {
	return m.pending
}

func (m *repositoryManager) Todos() Todos {
	return m.todos
}

func (m *repositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return m.db.RunInTx(ctx, opts, f)
}
