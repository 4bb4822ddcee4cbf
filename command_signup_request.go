package taskvault

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// SignupRequestMessage carries a new signup. The account stays temporary
// until the emailed code comes back through VerifySignupHandler.
type SignupRequestMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(resp *SignupRequestResponse)
}

func (e SignupRequestMessage) Type() string { return "signup.request" }

func (e SignupRequestMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

type SignupRequestResponse struct {
	Pending *PendingRegistration
	Success bool
}

type SignupRequestHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	now    func() time.Time
}

func NewSignupRequestHandler(repo RepositoryManager, mailer Mailer) *SignupRequestHandler {
	return &SignupRequestHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *SignupRequestHandler) WithLogger(l Logger) *SignupRequestHandler {
	h.logger = l
	return h
}

func (h *SignupRequestHandler) Execute(ctx context.Context, event SignupRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupRequestHandler) execute(ctx context.Context, event SignupRequestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup payload").
			WithTextCode(TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	taken, err := h.repo.Users().ExistsByEmail(ctx, event.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	code, expires, err := IssueOTP(h.now())
	if err != nil {
		return err
	}

	pending, err := h.repo.PendingRegistrations().Create(ctx, &PendingRegistration{
		Username:     event.Username,
		Email:        event.Email,
		PasswordHash: hash,
		OTP:          code,
		OTPExpires:   expires,
	})
	if err != nil {
		return err
	}

	// The OTP email is load bearing here: without it the signup can
	// never verify, so a delivery failure rolls the record back.
	if err := h.mailer.SendSignupOTP(ctx, pending.Email, code); err != nil {
		h.logger.Error("signup OTP delivery failed for %s: %v", pending.Email, err)
		if derr := h.repo.PendingRegistrations().DeleteTx(ctx, nil, pending.ID); derr != nil {
			h.logger.Warn("failed to discard undeliverable signup for %s: %v", pending.Email, derr)
		}
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignupRequestResponse{Pending: pending, Success: true})
	}

	return nil
}
