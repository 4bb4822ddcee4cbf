package taskvault

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// InitializePasswordResetMessage starts a reset by attaching a fresh OTP
// pair to the permanent account and mailing the code out.
type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "password_reset.initialize" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type InitializePasswordResetResponse struct {
	Email   string
	Success bool
}

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	now    func() time.Time
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *InitializePasswordResetHandler) WithLogger(l Logger) *InitializePasswordResetHandler {
	h.logger = l
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload").
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

	// A repeated request overwrites the previous pair, invalidating the
	// earlier emailed code.
	if err := h.repo.Users().SetOTP(ctx, user.ID, code, expires); err != nil {
		return err
	}

	if err := h.mailer.SendResetOTP(ctx, user.Email, code); err != nil {
		h.logger.Error("reset OTP delivery failed for %s: %v", user.Email, err)
		return goerrors.Wrap(err, ErrMailDelivery.Category, ErrMailDelivery.Message).
			WithTextCode(ErrMailDelivery.TextCode).
			WithCode(ErrMailDelivery.Code)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{Email: user.Email, Success: true})
	}

	return nil
}
