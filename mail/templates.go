package mail

const signupOTPText = `Thanks for signing up.

Your verification code is: %s

The code is valid for 2 minutes. If it expires you can request a new
one from the verification page.

If you did not sign up, you can ignore this email.
`

const signupOTPResendText = `Here is your new verification code: %s

It replaces the previous one, which no longer works. The code is valid
for 2 minutes.
`

const welcomeText = `Your email is verified and your account is ready.

You can now sign in and start organizing your tasks.
`

const resetOTPText = `We received a request to reset your password.

Your reset code is: %s

The code is valid for 2 minutes. If you did not request a reset, you
can ignore this email; your password is unchanged.
`

const resetOTPResendText = `Here is your new password reset code: %s

It replaces the previous one, which no longer works. The code is valid
for 2 minutes.
`

const resetConfirmationText = `Your password was changed just now.

If this was not you, reset your password immediately.
`

const loginNoticeText = `Hi %s,

Your account was just signed in to. If this was not you, reset your
password immediately.
`

const logoutNoticeText = `Hi %s,

You signed out of your account. See you next time.
`
