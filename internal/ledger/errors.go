package ledger

import "errors"

var (
	// ErrDailyClaimed means the 24h cooldown for the daily bonus is active.
	ErrDailyClaimed = errors.New("ledger: daily bonus already claimed")
	// ErrCodeNotFound means the redeem code does not exist. Codes stored
	// with a TTL usually vanish on expiry and surface as not-found too.
	ErrCodeNotFound = errors.New("ledger: code not found")
	// ErrCodeExpired means the code still exists but its validity has passed.
	ErrCodeExpired = errors.New("ledger: code expired")
	// ErrAlreadyRedeemed means this user already redeemed the code.
	ErrAlreadyRedeemed = errors.New("ledger: code already redeemed")
	// ErrInvalidFormat means a validity spec could not be parsed.
	ErrInvalidFormat = errors.New("ledger: invalid validity format")
	// ErrInvalidAmount means a point amount is zero or out of range.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrSelfReferral means a user tried to refer themselves.
	ErrSelfReferral = errors.New("ledger: self referral")
)
