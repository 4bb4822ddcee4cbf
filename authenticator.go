package taskvault

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther issues and resolves sessions against an identity provider
type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
	mailer       Mailer
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithMailer enables best effort login notification emails.
func (s *Auther) WithMailer(mailer Mailer) *Auther {
	s.mailer = mailer
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and returns a signed session token.
// The notification email is advisory: delivery failure is logged and the
// login still succeeds.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return "", err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate session token")
	}

	s.notifyLogin(ctx, identity)

	return token, nil
}

// LoginWithGoogle resolves or provisions an account for the OAuth
// profile and returns the token along with the public account record.
func (s *Auther) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (string, *User, error) {
	if profile.Email == "" {
		return "", nil, errors.New("OAuth profile is missing an email", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	identity, err := s.provider.ProvisionGoogleUser(ctx, profile)
	if err != nil {
		s.logger.Error("LoginWithGoogle provision error: %v", err)
		return "", nil, err
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate session token")
	}

	var user *User
	if carrier, ok := identity.(interface{ User() *User }); ok {
		user = carrier.User()
	}

	s.notifyLogin(ctx, identity)

	return token, user, nil
}

// SessionFromToken validates the token and builds a session from its claims
func (s *Auther) SessionFromToken(token string) (Session, error) {
	claims, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, err
	}
	return sessionFromClaims(claims), nil
}

// IdentityFromSession loads the current identity behind a session. A
// deleted or blocked account invalidates the session even if the token
// itself is still within its expiry.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	if session == nil || session.GetUserID() == "" {
		return nil, ErrTokenMalformed
	}
	return s.provider.FindIdentityByID(ctx, session.GetUserID())
}

func (s *Auther) notifyLogin(ctx context.Context, identity Identity) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendLoginNotice(ctx, identity.Email(), identity.Username()); err != nil {
		s.logger.Warn("login notice delivery failed for %s: %v", identity.Email(), err)
	}
}
