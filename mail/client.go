// Package mail delivers account notification emails over SMTP. When no
// mail host is configured the client runs disabled: every send succeeds
// without doing anything, which keeps local development working without
// an SMTP server.
package mail

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/mail"
	"net/url"
	"os"

	"github.com/dajohi/goemail"
	"github.com/goliatone/go-errors"

	"github.com/taskvault/taskvault"
)

// Client provides an SMTP client for sending account emails from a
// preset address.
//
// Client implements the taskvault.Mailer interface.
type Client struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
	logger      taskvault.Logger
}

var _ taskvault.Mailer = (*Client)(nil)

// Opts configures the SMTP client.
type Opts struct {
	// Host is the mail server in host:port form. Leaving Host, User,
	// or Password empty disables mail delivery entirely.
	Host     string
	User     string
	Password string

	// Address is the From address, optionally with a display name
	// ("TaskVault <no-reply@taskvault.io>").
	Address string

	// CertPath points at a PEM cert for the mail server. SkipVerify
	// bypasses TLS verification instead.
	CertPath   string
	SkipVerify bool

	Logger taskvault.Logger
}

// NewClient returns a new Client.
func NewClient(opts Opts) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = taskvault.NewDefaultLogger()
	}

	// Email is considered disabled if any of the required credentials
	// are missing.
	if opts.Host == "" || opts.User == "" || opts.Password == "" {
		logger.Warn("mail: DISABLED")
		return &Client{disabled: true, logger: logger}, nil
	}

	h := fmt.Sprintf("smtps://%v:%v@%v", opts.User, opts.Password, opts.Host)
	u, err := url.Parse(h)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid mail host")
	}

	logger.Info("mail host: smtps://%v:[password]@%v", opts.User, opts.Host)

	a, err := mail.ParseAddress(opts.Address)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid mail address")
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
	}
	if !opts.SkipVerify && opts.CertPath != "" {
		cert, err := os.ReadFile(opts.CertPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read mail server cert")
		}
		certPool, err := x509.SystemCertPool()
		if err != nil {
			certPool = x509.NewCertPool()
		}
		certPool.AppendCertsFromPEM(cert)
		tlsConfig.RootCAs = certPool
		tlsConfig.InsecureSkipVerify = false
	}

	smtp, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to set up SMTP context")
	}

	return &Client{
		smtp:        smtp,
		mailName:    a.Name,
		mailAddress: a.Address,
		logger:      logger,
	}, nil
}

// IsEnabled returns whether the mail server is enabled.
func (c *Client) IsEnabled() bool {
	return !c.disabled
}

func (c *Client) sendTo(recipient, subject, body string) error {
	if c.disabled {
		c.logger.Debug("mail disabled, dropping %q to %s", subject, recipient)
		return nil
	}

	msg := goemail.NewMessage(c.mailAddress, subject, body)
	msg.SetName(c.mailName)
	msg.AddTo(recipient)

	if err := c.smtp.Send(msg); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "smtp send failed")
	}
	return nil
}

// SendSignupOTP delivers the verification code for a new signup.
func (c *Client) SendSignupOTP(_ context.Context, recipient, code string) error {
	body := fmt.Sprintf(signupOTPText, code)
	return c.sendTo(recipient, "Verify your email", body)
}

// SendSignupOTPResend delivers a replacement verification code.
func (c *Client) SendSignupOTPResend(_ context.Context, recipient, code string) error {
	body := fmt.Sprintf(signupOTPResendText, code)
	return c.sendTo(recipient, "Your new verification code", body)
}

// SendWelcome greets a freshly verified account.
func (c *Client) SendWelcome(_ context.Context, recipient string) error {
	return c.sendTo(recipient, "Welcome to TaskVault", welcomeText)
}

// SendResetOTP delivers a password reset code.
func (c *Client) SendResetOTP(_ context.Context, recipient, code string) error {
	body := fmt.Sprintf(resetOTPText, code)
	return c.sendTo(recipient, "Reset your password", body)
}

// SendResetOTPResend delivers a replacement reset code.
func (c *Client) SendResetOTPResend(_ context.Context, recipient, code string) error {
	body := fmt.Sprintf(resetOTPResendText, code)
	return c.sendTo(recipient, "Your new password reset code", body)
}

// SendResetConfirmation confirms a completed password reset.
func (c *Client) SendResetConfirmation(_ context.Context, recipient string) error {
	return c.sendTo(recipient, "Your password was changed", resetConfirmationText)
}

// SendLoginNotice notifies an account of a new login.
func (c *Client) SendLoginNotice(_ context.Context, recipient, username string) error {
	body := fmt.Sprintf(loginNoticeText, username)
	return c.sendTo(recipient, "New login to your account", body)
}

// SendLogoutNotice notifies an account that its session ended.
func (c *Client) SendLogoutNotice(_ context.Context, recipient, username string) error {
	body := fmt.Sprintf(logoutNoticeText, username)
	return c.sendTo(recipient, "You signed out", body)
}
