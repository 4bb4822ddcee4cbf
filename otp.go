package taskvault

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// OTPValidity is how long an issued code can be redeemed.
const OTPValidity = 2 * time.Minute

// OTPLength is the fixed width of generated codes.
const OTPLength = 6

var otpSpace = big.NewInt(900000)

// GenerateOTP returns a 6 digit numeric code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate OTP")
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// IssueOTP generates a fresh code and its absolute expiry.
func IssueOTP(now time.Time) (code string, expires time.Time, err error) {
	code, err = GenerateOTP()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, now.Add(OTPValidity), nil
}
