package taskvault

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeFieldsRequired  = "fields_required"
	TextCodeEmailTaken      = "email_already_registered"
	TextCodePendingNotFound = "pending_registration_not_found"
	TextCodeUserNotFound    = "user_not_found"
	TextCodeOTPMissing      = "otp_missing"
	TextCodeOTPExpired      = "otp_expired"
	TextCodeOTPMismatch     = "otp_mismatch"
	TextCodeBadPassword     = "invalid_password"
	TextCodeUserBlocked     = "user_blocked"
	TextCodeTokenMissing    = "token_missing"
	TextCodeTokenExpired    = "token_expired"
	TextCodeTokenMalformed  = "token_malformed"
	TextCodeMailDelivery    = "mail_delivery_failed"
)

// ErrEmailTaken is returned when signup finds the email on a permanent
// account. The original surface reports this as a 400, not a 409.
var ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrPendingNotFound is returned when no temporary account exists for an email.
var ErrPendingNotFound = errors.New("no temporary account found with this email", errors.CategoryNotFound).
	WithTextCode(TextCodePendingNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserNotFound is returned when no permanent account matches.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrOTPMissing is returned when a record has no stored OTP pair to check.
var ErrOTPMissing = errors.New("OTP or OTP expiration time is missing", errors.CategoryValidation).
	WithTextCode(TextCodeOTPMissing).
	WithCode(errors.CodeBadRequest)

// ErrOTPExpired is returned once the stored expiry has passed, regardless
// of whether the submitted code would have matched.
var ErrOTPExpired = errors.New("OTP has expired", errors.CategoryValidation).
	WithTextCode(TextCodeOTPExpired).
	WithCode(errors.CodeBadRequest)

// ErrOTPMismatch is returned when the submitted code does not match.
var ErrOTPMismatch = errors.New("invalid OTP", errors.CategoryValidation).
	WithTextCode(TextCodeOTPMismatch).
	WithCode(errors.CodeBadRequest)

// ErrInvalidPassword is returned on a failed password comparison.
var ErrInvalidPassword = errors.New("invalid password", errors.CategoryAuth).
	WithTextCode(TextCodeBadPassword).
	WithCode(errors.CodeBadRequest)

// ErrUserBlocked is returned for blocked accounts even when the
// credentials are otherwise correct.
var ErrUserBlocked = errors.New("you are blocked by the admin", errors.CategoryAuthz).
	WithTextCode(TextCodeUserBlocked).
	WithCode(errors.CodeForbidden)

// ErrTokenMissing is the error when the request carries no session cookie.
var ErrTokenMissing = errors.New("token not found, please log in", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for sessions past their expiry claim.
var ErrTokenExpired = errors.New("session expired, please log in again", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures and undecodable tokens.
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeForbidden)

// ErrForbidden is returned when a session lacks the role a route needs.
var ErrForbidden = errors.New("you are not allowed to perform this action", errors.CategoryAuthz).
	WithTextCode("forbidden").
	WithCode(errors.CodeForbidden)

// ErrMailDelivery wraps transport failures from the mailer. Whether it is
// fatal depends on the caller: OTP issuance propagates it, login and
// logout notices only log it.
var ErrMailDelivery = errors.New("failed to deliver notification email", errors.CategoryInternal).
	WithTextCode(TextCodeMailDelivery).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString rejects empty inputs to the password hasher.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword mirrors the bcrypt mismatch error as a
// rich error so the transport layer can map it.
var ErrMismatchedHashAndPassword = errors.New("invalid password", errors.CategoryAuth).
	WithTextCode(TextCodeBadPassword).
	WithCode(errors.CodeBadRequest)

// IsNotFound will check err and wrapped errors for a not found category
func IsNotFound(err error) bool {
	return errors.IsNotFound(err)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
