package taskvault

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ValidateResetOTPMessage checks a reset code. Email is optional: the
// legacy client posts the bare code, in which case the account is found
// by the code itself.
type ValidateResetOTPMessage struct {
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	OnResponse func(resp *ValidateResetOTPResponse)
}

func (e ValidateResetOTPMessage) Type() string { return "password_reset.validate" }

func (e ValidateResetOTPMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, is.Email),
		validation.Field(&e.OTP, validation.Required, validation.Length(OTPLength, OTPLength), is.Digit),
	)
}

type ValidateResetOTPResponse struct {
	Email   string
	Success bool
}

type ValidateResetOTPHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

func NewValidateResetOTPHandler(repo RepositoryManager) *ValidateResetOTPHandler {
	return &ValidateResetOTPHandler{
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *ValidateResetOTPHandler) WithLogger(l Logger) *ValidateResetOTPHandler {
	h.logger = l
	return h
}

// WithNowFunc overrides the clock, for tests.
func (h *ValidateResetOTPHandler) WithNowFunc(now func() time.Time) *ValidateResetOTPHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *ValidateResetOTPHandler) Execute(ctx context.Context, event ValidateResetOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during reset OTP validation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ValidateResetOTPHandler) execute(ctx context.Context, event ValidateResetOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	event.OTP = strings.TrimSpace(event.OTP)

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid OTP payload").
			WithTextCode(TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	var user *User
	var err error

	if event.Email != "" {
		user, err = h.repo.Users().GetByEmail(ctx, event.Email)
	} else {
		user, err = h.repo.Users().GetByOTP(ctx, event.OTP)
	}
	if err != nil {
		return err
	}

	if user.OTP == "" || user.OTPExpires == nil {
		return ErrOTPMissing
	}

	// Expiry wins over a match: a correct but stale code reads expired.
	if h.now().After(*user.OTPExpires) {
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(event.OTP)) != 1 {
		return ErrOTPMismatch
	}

	// A code is good once. Clearing it here stops replays of a
	// validated code before the reset finishes.
	if err := h.repo.Users().ClearOTP(ctx, nil, user.ID); err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&ValidateResetOTPResponse{Email: user.Email, Success: true})
	}

	return nil
}
