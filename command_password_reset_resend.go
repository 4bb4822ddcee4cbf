package taskvault

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResendResetOTPMessage replaces the outstanding reset code with a new
// one and mails it to the account.
type ResendResetOTPMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendResetOTPResponse)
}

func (e ResendResetOTPMessage) Type() string { return "password_reset.resend_otp" }

func (e ResendResetOTPMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type ResendResetOTPResponse struct {
	Email   string
	Success bool
}

type ResendResetOTPHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	now    func() time.Time
}

func NewResendResetOTPHandler(repo RepositoryManager, mailer Mailer) *ResendResetOTPHandler {
	return &ResendResetOTPHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *ResendResetOTPHandler) WithLogger(l Logger) *ResendResetOTPHandler {
	h.logger = l
	return h
}

func (h *ResendResetOTPHandler) Execute(ctx context.Context, event ResendResetOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset OTP resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendResetOTPHandler) execute(ctx context.Context, event ResendResetOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid resend payload").
			WithTextCode(TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		return err
	}

	code, expires, err := IssueOTP(h.now())
	if err != nil {
		return err
	}

	if err := h.repo.Users().SetOTP(ctx, user.ID, code, expires); err != nil {
		return err
	}

	if err := h.mailer.SendResetOTPResend(ctx, user.Email, code); err != nil {
		h.logger.Error("reset OTP resend delivery failed for %s: %v", user.Email, err)
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendResetOTPResponse{Email: user.Email, Success: true})
	}

	return nil
}
