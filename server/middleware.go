package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskvault/taskvault"
)

const identityKey = "taskvault.identity"

// requireSession authenticates the request from the session cookie and
// loads the current identity behind it. A deleted account reads as 404
// and a blocked one as 403, regardless of what the token claims.
func (s *Server) requireSession(c *fiber.Ctx) error {
	token := c.Cookies(s.opts.CookieName)
	if token == "" {
		return taskvault.ErrTokenMissing
	}

	session, err := s.opts.Auth.SessionFromToken(token)
	if err != nil {
		return err
	}

	identity, err := s.opts.Auth.IdentityFromSession(c.UserContext(), session)
	if err != nil {
		return err
	}

	c.Locals(identityKey, identity)

	return c.Next()
}

// requireRole gates a route behind a minimum role. It must run after
// requireSession.
func (s *Server) requireRole(minRole taskvault.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := currentIdentity(c)
		if identity == nil {
			return taskvault.ErrTokenMissing
		}

		if !taskvault.RoleIsAtLeast(identity.Role(), minRole) {
			return taskvault.ErrForbidden
		}

		return c.Next()
	}
}

func currentIdentity(c *fiber.Ctx) taskvault.Identity {
	identity, ok := c.Locals(identityKey).(taskvault.Identity)
	if !ok {
		return nil
	}
	return identity
}
