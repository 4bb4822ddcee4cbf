package taskvault

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UserStore is the narrow store the provider needs to resolve identities
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	CreateFromProfile(ctx context.Context, profile GoogleProfile) (*User, error)
}

// UserProvider resolves identities against the users repository
type UserProvider struct {
	store  UserStore
	logger Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = l
	return u
}

// VerifyIdentity will find the user, compare the password, and return
// the identity. Blocked accounts fail even with correct credentials.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	// Blocked accounts fail before the password is examined, so a
	// blocked user always reads 403 regardless of the credentials.
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidPassword
	}

	return identityFromUser(user), nil
}

// FindIdentityByID returns the identity for the given user id
func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user by id")
	}

	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	return identityFromUser(user), nil
}

// ProvisionGoogleUser returns the existing account for the profile email
// or creates one with a derived username and an unguessable password.
func (u *UserProvider) ProvisionGoogleUser(ctx context.Context, profile GoogleProfile) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, profile.Email)
	if err == nil {
		if user.IsBlocked {
			return nil, ErrUserBlocked
		}
		return identityFromUser(user), nil
	}

	if !errors.IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up OAuth user")
	}

	user, err = u.store.CreateFromProfile(ctx, profile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to provision OAuth user")
	}

	u.logger.Info("provisioned new account for %s", user.Email)

	return identityFromUser(user), nil
}

// GoogleUsername derives an account name from the profile display name:
// lowercased, spaces stripped, with a four digit suffix to dodge the
// unique constraint on collisions.
func GoogleUsername(name string) string {
	base := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return fmt.Sprintf("%s%04d", base, rand.Intn(10000))
}

// DeterministicUserID derives a stable UUID from the account email so a
// promotion retried after a partial failure lands on the same row.
func DeterministicUserID(email string) (uuid.UUID, error) {
	id, err := hashid.NewUUID(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to derive user id")
	}
	return id, nil
}

type authIdentity struct {
	id       string
	email    string
	username string
	role     string
	user     *User
}

var _ Identity = (*authIdentity)(nil)

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Role() string     { return a.role }

// User exposes the backing record for callers that serialize the
// account after login.
func (a authIdentity) User() *User { return a.user }

func identityFromUser(user *User) Identity {
	return authIdentity{
		id:       user.ID.String(),
		email:    user.Email,
		username: user.Username,
		role:     string(user.Role),
		user:     user,
	}
}
