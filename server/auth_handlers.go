package server

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/taskvault/taskvault"
)

// emailParam decodes the :email path segment, which arrives escaped.
func emailParam(c *fiber.Ctx) string {
	raw := c.Params("email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func badPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "malformed request body").
		WithCode(goerrors.CodeBadRequest)
}

func (s *Server) handleSignup(c *fiber.Ctx) error {
	msg := taskvault.SignupRequestMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return badPayload(err)
	}

	if err := s.signup.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "verification code sent, please check your email",
	})
}

func (s *Server) handleSignupVerify(c *fiber.Ctx) error {
	var body struct {
		OTP string `json:"otp"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}

	var created *taskvault.User

	msg := taskvault.VerifySignupMessage{
		Email: emailParam(c),
		OTP:   body.OTP,
		OnResponse: func(resp *taskvault.VerifySignupResponse) {
			created = resp.User
		},
	}

	if err := s.verify.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "email verified, you can sign in now",
		"user":    created,
	})
}

func (s *Server) handleSignupResend(c *fiber.Ctx) error {
	msg := taskvault.ResendSignupOTPMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return badPayload(err)
	}

	if err := s.signupResend.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "a new verification code is on its way",
	})
}

func (s *Server) handleSignin(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}

	if body.Email == "" || body.Password == "" {
		return goerrors.New("all fields are required", goerrors.CategoryValidation).
			WithTextCode(taskvault.TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	token, err := s.opts.Auth.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return err
	}

	user, err := s.opts.Repo.Users().GetByEmail(c.UserContext(), body.Email)
	if err != nil {
		return err
	}

	s.setSessionCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleGoogleSignin(c *fiber.Ctx) error {
	profile := taskvault.GoogleProfile{}
	if err := c.BodyParser(&profile); err != nil {
		return badPayload(err)
	}

	token, user, err := s.opts.Auth.LoginWithGoogle(c.UserContext(), profile)
	if err != nil {
		return err
	}

	s.setSessionCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	msg := taskvault.InitializePasswordResetMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return badPayload(err)
	}

	if err := s.resetInit.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password reset code sent, please check your email",
	})
}

func (s *Server) handleValidateResetOTP(c *fiber.Ctx) error {
	msg := taskvault.ValidateResetOTPMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return badPayload(err)
	}

	var email string
	msg.OnResponse = func(resp *taskvault.ValidateResetOTPResponse) {
		email = resp.Email
	}

	if err := s.resetCheck.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "code verified, you can set a new password",
		"email":   email,
	})
}

func (s *Server) handleResendResetOTP(c *fiber.Ctx) error {
	msg := taskvault.ResendResetOTPMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return badPayload(err)
	}

	if err := s.resetResend.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "a new reset code is on its way",
	})
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badPayload(err)
	}

	msg := taskvault.FinalizePasswordResetMessage{
		Email:    emailParam(c),
		Password: body.Password,
	}

	if err := s.resetFinal.Execute(c.UserContext(), msg); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "password updated, you can sign in now",
	})
}
