package taskvault_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	"github.com/taskvault/taskvault"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fakeRepositoryManager hands out mock repositories and runs
// transactional closures inline with a zero-value bun.Tx, so errors
// from the closure surface the same way they do in production.
type fakeRepositoryManager struct {
	users   *MockUsers
	pending *MockPendingRegistrations
}

func newFakeRepo() *fakeRepositoryManager {
	return &fakeRepositoryManager{
		users:   &MockUsers{},
		pending: &MockPendingRegistrations{},
	}
}

func (f *fakeRepositoryManager) Users() taskvault.Users { return f.users }

func (f *fakeRepositoryManager) PendingRegistrations() taskvault.PendingRegistrations {
	return f.pending
}

func (f *fakeRepositoryManager) Todos() taskvault.Todos { return nil }

func (f *fakeRepositoryManager) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return fn(ctx, tx)
}

func (f *fakeRepositoryManager) assertExpectations(t mock.TestingT) {
	f.users.AssertExpectations(t)
	f.pending.AssertExpectations(t)
}

// MockUsers implements taskvault.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*taskvault.User, error) {
	args := m.Called(ctx, id)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*taskvault.User, error) {
	args := m.Called(ctx, tx, id)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*taskvault.User, error) {
	args := m.Called(ctx, email)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*taskvault.User, error) {
	args := m.Called(ctx, tx, email)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetByOTP(ctx context.Context, code string) (*taskvault.User, error) {
	args := m.Called(ctx, code)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, user *taskvault.User) (*taskvault.User, error) {
	args := m.Called(ctx, user)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, user *taskvault.User) (*taskvault.User, error) {
	args := m.Called(ctx, tx, user)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, user *taskvault.User) (*taskvault.User, error) {
	args := m.Called(ctx, user)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, user *taskvault.User) (*taskvault.User, error) {
	args := m.Called(ctx, tx, user)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) error {
	args := m.Called(ctx, id, code, expires)
	return args.Error(0)
}

func (m *MockUsers) ClearOTP(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockUsers) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*taskvault.User, error) {
	args := m.Called(ctx, id, blocked)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) List(ctx context.Context, criteria taskvault.UserListCriteria) ([]*taskvault.User, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*taskvault.User), args.Error(1)
}

func (m *MockUsers) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func toUser(v any) *taskvault.User {
	if v == nil {
		return nil
	}
	return v.(*taskvault.User)
}

// MockPendingRegistrations implements taskvault.PendingRegistrations
type MockPendingRegistrations struct {
	mock.Mock
}

func (m *MockPendingRegistrations) Create(ctx context.Context, record *taskvault.PendingRegistration) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, record)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByEmail(ctx context.Context, email string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, email)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, tx, email)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByEmailAndOTP(ctx context.Context, email, code string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, email, code)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByEmailAndOTPTx(ctx context.Context, tx bun.IDB, email, code string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, tx, email, code)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByOTP(ctx context.Context, code string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, code)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) GetByOTPTx(ctx context.Context, tx bun.IDB, code string) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, tx, code)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) SetOTP(ctx context.Context, id uuid.UUID, code string, expires time.Time) (*taskvault.PendingRegistration, error) {
	args := m.Called(ctx, id, code, expires)
	return toPending(args.Get(0)), args.Error(1)
}

func (m *MockPendingRegistrations) DeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockPendingRegistrations) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func toPending(v any) *taskvault.PendingRegistration {
	if v == nil {
		return nil
	}
	return v.(*taskvault.PendingRegistration)
}

// MockMailer implements taskvault.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendSignupOTP(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

func (m *MockMailer) SendSignupOTPResend(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

func (m *MockMailer) SendWelcome(ctx context.Context, recipient string) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

func (m *MockMailer) SendResetOTP(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

func (m *MockMailer) SendResetOTPResend(ctx context.Context, recipient, code string) error {
	args := m.Called(ctx, recipient, code)
	return args.Error(0)
}

func (m *MockMailer) SendResetConfirmation(ctx context.Context, recipient string) error {
	args := m.Called(ctx, recipient)
	return args.Error(0)
}

func (m *MockMailer) SendLoginNotice(ctx context.Context, recipient, username string) error {
	args := m.Called(ctx, recipient, username)
	return args.Error(0)
}

func (m *MockMailer) SendLogoutNotice(ctx context.Context, recipient, username string) error {
	args := m.Called(ctx, recipient, username)
	return args.Error(0)
}

// MockUserStore implements taskvault.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*taskvault.User, error) {
	args := m.Called(ctx, email)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*taskvault.User, error) {
	args := m.Called(ctx, id)
	return toUser(args.Get(0)), args.Error(1)
}

func (m *MockUserStore) CreateFromProfile(ctx context.Context, profile taskvault.GoogleProfile) (*taskvault.User, error) {
	args := m.Called(ctx, profile)
	return toUser(args.Get(0)), args.Error(1)
}
