// Package server exposes the HTTP surface: auth and account routes,
// per-user todo routes, session middleware, and the error to status
// mapping the client expects.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/taskvault/taskvault"
)

// Options wires the server's collaborators and cookie behavior.
type Options struct {
	ClientOrigin string
	CookieName   string
	// CookieTTLHours should match the token expiration so the cookie
	// and the claim inside it expire together.
	CookieTTLHours int
	CookieSecure   bool

	Repo   taskvault.RepositoryManager
	Auth   taskvault.Authenticator
	Mailer taskvault.Mailer
	Logger taskvault.Logger
}

// Server is the fiber application plus its workflow handlers.
type Server struct {
	app    *fiber.App
	opts   Options
	logger taskvault.Logger

	signup       *taskvault.SignupRequestHandler
	verify       *taskvault.VerifySignupHandler
	signupResend *taskvault.ResendSignupOTPHandler
	resetInit    *taskvault.InitializePasswordResetHandler
	resetCheck   *taskvault.ValidateResetOTPHandler
	resetResend  *taskvault.ResendResetOTPHandler
	resetFinal   *taskvault.FinalizePasswordResetHandler
}

// New builds the fiber app and registers every route.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = taskvault.NewDefaultLogger()
	}
	if opts.CookieName == "" {
		opts.CookieName = "access_token"
	}
	if opts.CookieTTLHours <= 0 {
		opts.CookieTTLHours = 24 * 5
	}

	s := &Server{
		opts:   opts,
		logger: logger,

		signup:       taskvault.NewSignupRequestHandler(opts.Repo, opts.Mailer).WithLogger(logger),
		verify:       taskvault.NewVerifySignupHandler(opts.Repo, opts.Mailer).WithLogger(logger),
		signupResend: taskvault.NewResendSignupOTPHandler(opts.Repo, opts.Mailer).WithLogger(logger),
		resetInit:    taskvault.NewInitializePasswordResetHandler(opts.Repo, opts.Mailer).WithLogger(logger),
		resetCheck:   taskvault.NewValidateResetOTPHandler(opts.Repo).WithLogger(logger),
		resetResend:  taskvault.NewResendResetOTPHandler(opts.Repo, opts.Mailer).WithLogger(logger),
		resetFinal:   taskvault.NewFinalizePasswordResetHandler(opts.Repo, opts.Mailer).WithLogger(logger),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "taskvault",
		ErrorHandler: s.errorHandler,
	})

	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.ClientOrigin,
		AllowCredentials: true,
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	app := s.app

	app.Post("/signup", s.handleSignup)
	app.Post("/signupvalidate-otp/:email", s.handleSignupVerify)
	app.Post("/signupresend-otp", s.handleSignupResend)
	app.Post("/signin", s.handleSignin)
	app.Post("/google", s.handleGoogleSignin)

	app.Post("/forgot-password", s.handleForgotPassword)
	app.Post("/validate-otp", s.handleValidateResetOTP)
	app.Post("/resend-otp", s.handleResendResetOTP)
	app.Post("/reset-password/:email", s.handleResetPassword)

	user := app.Group("/user", s.requireSession)
	user.Post("/signout", s.handleSignout)
	user.Put("/update/:userId", s.handleUpdateUser)
	user.Get("/getusers", s.requireRole(taskvault.RoleAdmin), s.handleGetUsers)
	user.Patch("/updateRole/:userId", s.requireRole(taskvault.RoleAdmin), s.handleUpdateRole)
	user.Patch("/block/:id", s.requireRole(taskvault.RoleAdmin), s.handleBlockUser)
	user.Patch("/unblock/:id", s.requireRole(taskvault.RoleAdmin), s.handleUnblockUser)
	user.Delete("/delete/:userId", s.requireRole(taskvault.RoleAdmin), s.handleDeleteUser)
	user.Get("/:userId", s.requireRole(taskvault.RoleAdmin), s.handleGetUser)

	todos := app.Group("/todolist", s.requireSession)
	todos.Post("/todo", s.handleCreateTodo)
	todos.Get("/todo", s.handleListTodos)
	todos.Get("/todo/:id", s.handleGetTodo)
	todos.Put("/todo/:id", s.handleUpdateTodo)
	todos.Delete("/todo/:id", s.handleDeleteTodo)
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}

// App exposes the underlying fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(s.opts.CookieTTLHours) * time.Hour),
		Path:     "/",
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-time.Hour),
		Path:     "/",
	})
}
