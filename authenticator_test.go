package taskvault_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskvault/taskvault"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string   { return "test-signing-key" }
func (testConfig) GetTokenExpiration() int { return 120 }
func (testConfig) GetIssuer() string       { return "taskvault" }
func (testConfig) GetCookieName() string   { return "access_token" }

func hashedUser(t *testing.T, password string) *taskvault.User {
	t.Helper()
	hash, err := taskvault.HashPassword(password)
	require.NoError(t, err)
	return &taskvault.User{
		ID:           uuid.New(),
		Role:         taskvault.RoleUser,
		Username:     "dave1234",
		Email:        "dave@example.com",
		PasswordHash: hash,
	}
}

func TestLoginIssuesValidSession(t *testing.T) {
	store := &MockUserStore{}
	user := hashedUser(t, "pa55word")

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()
	store.On("GetByID", mock.Anything, user.ID.String()).
		Return(user, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	token, err := auth.Login(context.Background(), "dave@example.com", "pa55word")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := auth.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())

	// The identity behind the session is re-read from the store.
	identity, err := auth.IdentityFromSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, user.Email, identity.Email())
	assert.Equal(t, taskvault.RoleUser, identity.Role())

	store.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	store := &MockUserStore{}
	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(hashedUser(t, "pa55word"), nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	_, err := auth.Login(context.Background(), "dave@example.com", "wrong")
	assert.ErrorIs(t, err, taskvault.ErrInvalidPassword)
}

func TestLoginBlockedUserFailsWithCorrectPassword(t *testing.T) {
	store := &MockUserStore{}
	user := hashedUser(t, "pa55word")
	user.IsBlocked = true

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	_, err := auth.Login(context.Background(), "dave@example.com", "pa55word")
	assert.ErrorIs(t, err, taskvault.ErrUserBlocked)
}

func TestLoginBlockedUserFailsBeforePasswordCheck(t *testing.T) {
	// The block outranks the credentials: a blocked user with a wrong
	// password still reads blocked, not invalid password.
	store := &MockUserStore{}
	user := hashedUser(t, "pa55word")
	user.IsBlocked = true

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	_, err := auth.Login(context.Background(), "dave@example.com", "wrong")
	assert.ErrorIs(t, err, taskvault.ErrUserBlocked)
}

func TestLoginUnknownEmail(t *testing.T) {
	store := &MockUserStore{}
	store.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, taskvault.ErrUserNotFound).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	_, err := auth.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, taskvault.ErrUserNotFound)
}

func TestLoginSendsBestEffortNotice(t *testing.T) {
	store := &MockUserStore{}
	mailer := &MockMailer{}
	user := hashedUser(t, "pa55word")

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()
	// Delivery failure must not fail the login.
	mailer.On("SendLoginNotice", mock.Anything, "dave@example.com", "dave1234").
		Return(assert.AnError).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).
		WithLogger(testLogger{}).
		WithMailer(mailer)

	token, err := auth.Login(context.Background(), "dave@example.com", "pa55word")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	mailer.AssertExpectations(t)
}

func TestLoginWithGoogleExistingAccount(t *testing.T) {
	store := &MockUserStore{}
	user := hashedUser(t, "irrelevant")

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	token, got, err := auth.LoginWithGoogle(context.Background(), taskvault.GoogleProfile{
		Email: "dave@example.com",
		Name:  "Dave Example",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)

	store.AssertExpectations(t)
}

func TestLoginWithGoogleProvisionsNewAccount(t *testing.T) {
	store := &MockUserStore{}

	profile := taskvault.GoogleProfile{
		Email:    "newbie@example.com",
		Name:     "New Bie",
		PhotoURL: "https://lh3.example.com/photo.jpg",
	}

	created := &taskvault.User{
		ID:       uuid.New(),
		Role:     taskvault.RoleUser,
		Username: "newbie0042",
		Email:    profile.Email,
	}

	store.On("GetByEmail", mock.Anything, "newbie@example.com").
		Return(nil, taskvault.ErrUserNotFound).Once()
	store.On("CreateFromProfile", mock.Anything, profile).
		Return(created, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	token, got, err := auth.LoginWithGoogle(context.Background(), profile)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, got)
	assert.Equal(t, "newbie@example.com", got.Email)

	store.AssertExpectations(t)
}

func TestLoginWithGoogleRequiresEmail(t *testing.T) {
	provider := taskvault.NewUserProvider(&MockUserStore{}).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	_, _, err := auth.LoginWithGoogle(context.Background(), taskvault.GoogleProfile{Name: "No Email"})
	require.Error(t, err)
}

func TestIdentityFromSessionBlockedMidSession(t *testing.T) {
	store := &MockUserStore{}
	user := hashedUser(t, "pa55word")

	store.On("GetByEmail", mock.Anything, "dave@example.com").
		Return(user, nil).Once()

	provider := taskvault.NewUserProvider(store).WithLogger(testLogger{})
	auth := taskvault.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})

	token, err := auth.Login(context.Background(), "dave@example.com", "pa55word")
	require.NoError(t, err)

	session, err := auth.SessionFromToken(token)
	require.NoError(t, err)

	// Account got blocked after the token was issued.
	blocked := *user
	blocked.IsBlocked = true
	store.On("GetByID", mock.Anything, user.ID.String()).
		Return(&blocked, nil).Once()

	_, err = auth.IdentityFromSession(context.Background(), session)
	assert.ErrorIs(t, err, taskvault.ErrUserBlocked)
}

func TestGoogleUsername(t *testing.T) {
	name := taskvault.GoogleUsername("Ada Lovelace")
	assert.Regexp(t, `^adalovelace\d{4}$`, name)
}
