package taskvault

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifySignupMessage redeems an emailed code against a temporary
// account. On success the account becomes permanent and the temporary
// record is gone, so a second submission of the same code fails.
type VerifySignupMessage struct {
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	OnResponse func(resp *VerifySignupResponse)
}

func (e VerifySignupMessage) Type() string { return "signup.verify" }

func (e VerifySignupMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.OTP, validation.Required, validation.Length(OTPLength, OTPLength), is.Digit),
	)
}

type VerifySignupResponse struct {
	User    *User
	Success bool
}

type VerifySignupHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
	now    func() time.Time
}

func NewVerifySignupHandler(repo RepositoryManager, mailer Mailer) *VerifySignupHandler {
	return &VerifySignupHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (h *VerifySignupHandler) WithLogger(l Logger) *VerifySignupHandler {
	h.logger = l
	return h
}

// WithNowFunc overrides the clock, for tests.
func (h *VerifySignupHandler) WithNowFunc(now func() time.Time) *VerifySignupHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *VerifySignupHandler) Execute(ctx context.Context, event VerifySignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifySignupHandler) execute(ctx context.Context, event VerifySignupMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	event.OTP = strings.TrimSpace(event.OTP)

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid verification payload").
			WithTextCode(TextCodeFieldsRequired).
			WithCode(goerrors.CodeBadRequest)
	}

	// Promotion is a single transaction: create the permanent account
	// and delete the temporary one, or neither. Two racing submissions
	// of the same code cannot both succeed because the second delete
	// finds nothing.
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		pending, err := h.repo.PendingRegistrations().GetByEmailAndOTPTx(ctx, tx, event.Email, event.OTP)
		if err != nil {
			if goerrors.IsNotFound(err) {
				// Distinguish a wrong code from a reaped or absent
				// signup. Expiry wins over a mismatch so the caller
				// learns the code is stale rather than retrying it.
				if latest, lookupErr := h.repo.PendingRegistrations().GetByEmailTx(ctx, tx, event.Email); lookupErr == nil {
					if h.now().After(latest.OTPExpires) {
						return ErrOTPExpired
					}
					return ErrOTPMismatch
				}
				return ErrPendingNotFound
			}
			return err
		}

		if h.now().After(pending.OTPExpires) {
			return ErrOTPExpired
		}

		id, err := DeterministicUserID(pending.Email)
		if err != nil {
			return err
		}

		user.ID = id
		user.Role = RoleUser
		user.Username = pending.Username
		user.Email = pending.Email
		user.PasswordHash = pending.PasswordHash

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user").
				WithTextCode(TextCodeEmailTaken).
				WithCode(goerrors.CodeBadRequest)
		}

		return h.repo.PendingRegistrations().DeleteTx(ctx, tx, pending.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify signup")
	}

	if err := h.mailer.SendWelcome(ctx, user.Email); err != nil {
		h.logger.Warn("welcome email delivery failed for %s: %v", user.Email, err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifySignupResponse{User: user, Success: true})
	}

	return nil
}
