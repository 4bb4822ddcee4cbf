package taskvault_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskvault/taskvault"
)

type testIdentity struct {
	id       string
	email    string
	username string
	role     string
}

func (t testIdentity) ID() string       { return t.id }
func (t testIdentity) Email() string    { return t.email }
func (t testIdentity) Username() string { return t.username }
func (t testIdentity) Role() string     { return t.role }

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := taskvault.NewTokenService([]byte("test-secret"), 120, "taskvault", testLogger{})

	identity := testIdentity{
		id:       "b4f9a261-4b51-4b46-9e4f-111111111111",
		email:    "alice@example.com",
		username: "alice7x",
		role:     taskvault.RoleUser,
	}

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, taskvault.RoleUser, claims.Role())
	assert.True(t, claims.HasRole(taskvault.RoleUser))
	assert.True(t, claims.IsAtLeast(taskvault.RoleUser))
	assert.False(t, claims.IsAtLeast(taskvault.RoleAdmin))

	// Five day expiry, within scheduling slack.
	assert.WithinDuration(t, time.Now().Add(120*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	issuer := taskvault.NewTokenService([]byte("key-one"), 120, "taskvault", testLogger{})
	verifier := taskvault.NewTokenService([]byte("key-two"), 120, "taskvault", testLogger{})

	token, err := issuer.Generate(testIdentity{id: "abc", role: taskvault.RoleUser})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
	assert.True(t, taskvault.IsMalformedError(err))
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := taskvault.NewTokenService([]byte("test-secret"), 120, "taskvault", testLogger{})
	impl, ok := svc.(*taskvault.TokenServiceImpl)
	require.True(t, ok)

	past := time.Now().Add(-time.Hour)
	token, err := impl.SignClaims(&taskvault.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskvault",
			Subject:   "abc",
			ExpiresAt: jwt.NewNumericDate(past),
		},
		UID:      "abc",
		UserRole: taskvault.RoleUser,
	})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, taskvault.IsTokenExpiredError(err))
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	ts := taskvault.NewTokenService([]byte("test-secret"), 120, "taskvault", testLogger{})

	token, err := ts.Generate(testIdentity{id: "abc", role: taskvault.RoleUser})
	require.NoError(t, err)

	_, err = ts.Validate(token + "x")
	require.Error(t, err)

	_, err = ts.Validate("not-a-token")
	require.Error(t, err)
	assert.True(t, taskvault.IsMalformedError(err))
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	issuer := taskvault.NewTokenService([]byte("test-secret"), 120, "someone-else", testLogger{})
	verifier := taskvault.NewTokenService([]byte("test-secret"), 120, "taskvault", testLogger{})

	token, err := issuer.Generate(testIdentity{id: "abc", role: taskvault.RoleUser})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}
