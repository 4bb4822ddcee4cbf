package taskvault

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// GetRole returns the role claim carried by the session, defaulting to
// the base role for tokens minted before roles were added.
func (s *SessionObject) GetRole() UserRole {
	if s.Data == nil {
		return RoleUser
	}
	if raw, ok := s.Data["role"]; ok {
		if role, ok := raw.(string); ok && IsValidRole(UserRole(role)) {
			return UserRole(role)
		}
	}
	return RoleUser
}

// IsAtLeast reports whether the session role meets the minimum.
func (s *SessionObject) IsAtLeast(minRole UserRole) bool {
	return RoleIsAtLeast(s.GetRole(), minRole)
}

func sessionFromClaims(claims AuthClaims) *SessionObject {
	issuedAt := claims.IssuedAt()
	expires := claims.Expires()

	session := &SessionObject{
		UserID: claims.UserID(),
		Data: map[string]any{
			"role": claims.Role(),
		},
	}

	if !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}

	if !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	return session
}
