package server

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/taskvault/taskvault"
)

// usernamePattern enforces the profile update rules: 7 to 20 characters,
// lowercase letters and digits only, no spaces.
var usernamePattern = regexp.MustCompile(`^[a-z0-9]{7,20}$`)

const defaultPageSize = 9

func userIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed user id").
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (s *Server) handleSignout(c *fiber.Ctx) error {
	identity := currentIdentity(c)

	s.clearSessionCookie(c)

	if identity != nil && s.opts.Mailer != nil {
		if err := s.opts.Mailer.SendLogoutNotice(c.UserContext(), identity.Email(), identity.Username()); err != nil {
			s.logger.Warn("logout notice delivery failed for %s: %v", identity.Email(), err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "signed out",
	})
}

type updateUserBody struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

// handleUpdateUser lets a user edit their own profile; admins can edit
// anyone's.
func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	identity := currentIdentity(c)

	targetID, err := userIDParam(c, "userId")
	if err != nil {
		return err
	}

	if identity.ID() != targetID.String() && !taskvault.RoleIsAtLeast(identity.Role(), taskvault.RoleAdmin) {
		return taskvault.ErrForbidden
	}

	body := updateUserBody{}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}

	user, err := s.opts.Repo.Users().GetByID(c.UserContext(), targetID)
	if err != nil {
		return err
	}

	if body.Username != "" {
		if !usernamePattern.MatchString(body.Username) {
			return goerrors.New(
				"username must be 7 to 20 characters, lowercase letters and numbers only",
				goerrors.CategoryValidation,
			).WithCode(goerrors.CodeBadRequest)
		}
		user.Username = body.Username
	}

	if body.Email != "" {
		user.Email = body.Email
	}

	if body.ProfilePicture != "" {
		user.ProfilePicture = body.ProfilePicture
	}

	if body.Password != "" {
		if len(body.Password) < 6 {
			return goerrors.New(
				"password must be at least 6 characters",
				goerrors.CategoryValidation,
			).WithCode(goerrors.CodeBadRequest)
		}
		hash, err := taskvault.HashPassword(body.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}

	user, err = s.opts.Repo.Users().Update(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// handleGetUsers is the admin listing with paging, date range, sort
// direction, and free text search over username and email.
func (s *Server) handleGetUsers(c *fiber.Ctx) error {
	criteria := taskvault.UserListCriteria{
		Offset:  c.QueryInt("startIndex", 0),
		Limit:   c.QueryInt("limit", defaultPageSize),
		SortAsc: c.Query("sort") == "asc",
		Search:  c.Query("search"),
	}

	if raw := c.Query("startDate"); raw != "" {
		if t, err := parseDateParam(raw); err == nil {
			criteria.StartDate = &t
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if t, err := parseDateParam(raw); err == nil {
			criteria.EndDate = &t
		}
	}

	ctx := c.UserContext()

	users, err := s.opts.Repo.Users().List(ctx, criteria)
	if err != nil {
		return err
	}

	total, err := s.opts.Repo.Users().Count(ctx)
	if err != nil {
		return err
	}

	lastMonth, err := s.opts.Repo.Users().CountCreatedSince(ctx, time.Now().AddDate(0, -1, 0))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"users":          users,
		"totalUsers":     total,
		"lastMonthUsers": lastMonth,
	})
}

func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	// Millisecond timestamps, the way the old client sent them.
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func (s *Server) handleUpdateRole(c *fiber.Ctx) error {
	targetID, err := userIDParam(c, "userId")
	if err != nil {
		return err
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}

	role, ok := taskvault.ParseRole(body.Role)
	if !ok {
		return goerrors.New("unknown role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": body.Role})
	}

	user, err := s.opts.Repo.Users().GetByID(c.UserContext(), targetID)
	if err != nil {
		return err
	}

	user.Role = role
	user, err = s.opts.Repo.Users().Update(c.UserContext(), user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleBlockUser(c *fiber.Ctx) error {
	return s.setBlocked(c, true)
}

func (s *Server) handleUnblockUser(c *fiber.Ctx) error {
	return s.setBlocked(c, false)
}

func (s *Server) setBlocked(c *fiber.Ctx, blocked bool) error {
	targetID, err := userIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := s.opts.Repo.Users().SetBlocked(c.UserContext(), targetID, blocked)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	targetID, err := userIDParam(c, "userId")
	if err != nil {
		return err
	}

	if err := s.opts.Repo.Users().Delete(c.UserContext(), targetID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "user deleted",
	})
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	targetID, err := userIDParam(c, "userId")
	if err != nil {
		return err
	}

	user, err := s.opts.Repo.Users().GetByID(c.UserContext(), targetID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
