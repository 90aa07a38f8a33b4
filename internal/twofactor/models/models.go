package models

import (
	"fmt"
	"time"
)

// Channel identifies the delivery channel for a verification code.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// ParseChannel validates a client-supplied channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelEmail:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("unknown channel %q", s)
	}
}

const (
	// CodeLength is the number of digits in a verification code.
	CodeLength = 6

	// AttemptCeiling is the number of wrong submissions after which a
	// challenge locks. A locked challenge rejects even the correct code.
	AttemptCeiling = 5

	// DefaultBackupCodeCount is the size of a backup-code batch minted
	// at enrollment.
	DefaultBackupCodeCount = 10
)

// Challenge is a pending verification code for one (user, channel) pair.
// At most one live challenge exists per pair; issuing a new one replaces
// the prior.
type Challenge struct {
	UserID    string
	Channel   Channel
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
}

// Key returns the store key for the challenge's (user, channel) pair.
func Key(userID string, channel Channel) string {
	return userID + "|" + string(channel)
}

// AttemptOutcome is the result of submitting a code against a stored
// challenge. The store resolves the whole state machine under one per-key
// lock so that concurrent submissions cannot double-verify or race past
// the attempt ceiling.
type AttemptOutcome int

const (
	AttemptNotFound AttemptOutcome = iota
	AttemptExpired
	AttemptLocked
	AttemptMismatch
	AttemptVerified
)
