// Package taskvault implements the core domain of the TaskVault service:
// OTP-gated account provisioning, password-reset workflows, JWT session
// issuance, role-based user administration, and per-user todo items.
//
// HTTP transport lives in the server package, SMTP delivery in the mail
// package, and process wiring in cmd/taskvault.
package taskvault
