package taskvault

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResendSignupOTPMessage refreshes the code on an unverified signup.
// The previous code stops working the moment the new one is stored.
type ResendSignupOTPMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendSignupOTPResponse)
}

func (e ResendSignupOTPMessage) Type() string { return "signup.resend_otp" }

func (e ResendSignupOTPMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type ResendSignupOTPResponse struct {
	Pending *PendingRegistration
	Success bool
}

type ResendSignupOTPHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	now    func() time.Time
}

func NewResendSignupOTPHandler(repo RepositoryManager, mailer Mailer) *ResendSignupOTPHandler {
	return &ResendSignupOTPHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *ResendSignupOTPHandler) WithLogger(l Logger) *ResendSignupOTPHandler {
	h.logger = l
	return h
}

func (h *ResendSignupOTPHandler) Execute(ctx context.Context, event ResendSignupOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup OTP resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendSignupOTPHandler) execute(ctx context.Context, event ResendSignupOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid resend payload").
			WithTextCode(TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	pending, err := h.repo.PendingRegistrations().GetByEmail(ctx, event.Email)
	if err != nil {
		return err
	}

	code, expires, err := IssueOTP(h.now())
	if err != nil {
		return err
	}

	pending, err = h.repo.PendingRegistrations().SetOTP(ctx, pending.ID, code, expires)
	if err != nil {
		return err
	}

	if err := h.mailer.SendSignupOTPResend(ctx, pending.Email, code); err != nil {
		h.logger.Error("signup OTP resend delivery failed for %s: %v", pending.Email, err)
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendSignupOTPResponse{Pending: pending, Success: true})
	}

	return nil
}
