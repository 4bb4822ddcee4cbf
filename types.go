package taskvault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	LoginWithGoogle(ctx context.Context, profile GoogleProfile) (string, *User, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// GoogleProfile is the OAuth profile the client obtained from the
// provider and posts to the google login endpoint.
type GoogleProfile struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"googlePhotoUrl"`
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetCookieName() string
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
	ProvisionGoogleUser(ctx context.Context, profile GoogleProfile) (Identity, error)
}

// TokenValidator validates tokens and extracts claims without tying
// callers to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenService signs and validates session tokens.
type TokenService interface {
	TokenValidator
	Generate(identity Identity) (string, error)
}

// Mailer delivers account notifications. OTP deliveries are load bearing:
// callers treat their failure as fatal. The notice methods are advisory
// and callers only log their failure.
type Mailer interface {
	SendSignupOTP(ctx context.Context, recipient, code string) error
	SendSignupOTPResend(ctx context.Context, recipient, code string) error
	SendWelcome(ctx context.Context, recipient string) error
	SendResetOTP(ctx context.Context, recipient, code string) error
	SendResetOTPResend(ctx context.Context, recipient, code string) error
	SendResetConfirmation(ctx context.Context, recipient string) error
	SendLoginNotice(ctx context.Context, recipient, username string) error
	SendLogoutNotice(ctx context.Context, recipient, username string) error
}

type defLogger struct{}

// NewDefaultLogger returns the stdout logger used when nothing better
// is configured.
func NewDefaultLogger() Logger {
	return defLogger{}
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] TASKVAULT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] TASKVAULT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] TASKVAULT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] TASKVAULT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
