package taskvault

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// identityStore adapts the users repository to the narrow UserStore the
// identity provider consumes.
type identityStore struct {
	users Users
}

var _ UserStore = (*identityStore)(nil)

// NewIdentityStore wraps a Users repository for identity resolution.
func NewIdentityStore(users Users) UserStore {
	return &identityStore{users: users}
}

func (s *identityStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *identityStore) GetByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "malformed user id")
	}
	return s.users.GetByID(ctx, uid)
}

func (s *identityStore) CreateFromProfile(ctx context.Context, profile GoogleProfile) (*User, error) {
	picture := profile.PhotoURL
	if picture == "" {
		picture = DefaultProfilePicture
	}

	user := &User{
		Role:           RoleUser,
		Username:       GoogleUsername(profile.Name),
		Email:          profile.Email,
		PasswordHash:   RandomPasswordHash(),
		ProfilePicture: picture,
	}

	return s.users.Create(ctx, user)
}
