package taskvault

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (i.e. own profile, own todos)
	RoleUser UserRole = "user"
	// RoleAdmin can manage other accounts (i.e. list, block, delete)
	RoleAdmin UserRole = "admin"
	// RoleOwner outranks admins (i.e. role assignment)
	RoleOwner UserRole = "owner"
)

// DefaultProfilePicture is used when a signup provides no avatar.
const DefaultProfilePicture = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_960_720.png"

// User is the permanent credential record. The OTP pair is used only by
// the password-reset flow and is cleared once validated.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	ProfilePicture string     `bun:"profile_picture" json:"profile_picture,omitempty"`
	IsBlocked      bool       `bun:"is_blocked,notnull,default:false" json:"is_blocked"`
	OTP            string     `bun:"otp,nullzero" json:"-"`
	OTPExpires     *time.Time `bun:"otp_expires,nullzero" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PendingRegistration is an unverified signup. The email column is
// deliberately not unique: repeated signups for the same address may
// coexist until one of them verifies or the sweeper reaps them.
type PendingRegistration struct {
	bun.BaseModel `bun:"table:pending_registrations,alias:pnd"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull" json:"username,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	OTP           string     `bun:"otp,notnull" json:"-"`
	OTPExpires    time.Time  `bun:"otp_expires,notnull" json:"otp_expires,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// TodoPriority orders todo items
type TodoPriority = string

const (
	PriorityLow    TodoPriority = "low"
	PriorityMedium TodoPriority = "medium"
	PriorityHigh   TodoPriority = "high"
)

// Todo is a per-user todo item
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:tdo"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID    `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Title         string       `bun:"title,notnull" json:"title,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	Priority      TodoPriority `bun:"priority,notnull" json:"priority,omitempty"`
	DueDate       *time.Time   `bun:"due_date,nullzero" json:"due_date,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasValidOTP reports whether the reset OTP pair is present and unexpired.
func (u *User) HasValidOTP(now time.Time) bool {
	if u.OTP == "" || u.OTPExpires == nil {
		return false
	}
	return now.Before(*u.OTPExpires) || now.Equal(*u.OTPExpires)
}

// IsValidPriority checks the priority against the allowed set
func IsValidPriority(p TodoPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}
