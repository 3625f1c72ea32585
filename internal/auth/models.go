package auth

import (
	"time"

	"gorm.io/gorm"
)

// User is a trading account. Passwords and trading PINs are stored as bcrypt
// hashes only. Balance is the simulated cash balance mutated by the trading
// service.
type User struct {
	gorm.Model   `json:"-"`
	Email        string  `gorm:"uniqueIndex" json:"email"`
	PasswordHash string  `json:"-"`
	PINHash      string  `json:"-"`
	Balance      float64 `json:"balance"`
	Verified     bool    `json:"verified"`

	// Pending email verification code. Cleared once verified.
	OTPCode      string    `json:"-"`
	OTPExpiresAt time.Time `json:"-"`
}
