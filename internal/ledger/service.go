// Package ledger implements the points economy: balances, the daily bonus,
// referral attribution, admin-minted redeem codes, and the referral
// leaderboard. All state lives in the record store; the only atomic
// primitives used are IncrBy for counters and PutNX for one-shot claims.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	coreconfig "dropbot/core/config"
	"dropbot/core/logger"
	"dropbot/internal/store"
	"log/slog"
)

const dailyCooldown = 24 * time.Hour

// codeDoc is the JSON document stored under redeem:<code>.
type codeDoc struct {
	Value     int64     `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
	MintedBy  int64     `json:"mintedBy"`
}

// Standing is one leaderboard row.
type Standing struct {
	UserID    int64
	Referrals int64
}

// Service owns all point accounting.
type Service struct {
	store store.Store
	cfg   coreconfig.LedgerConfig
}

// NewService builds the ledger on top of a record store.
func NewService(s store.Store, cfg coreconfig.LedgerConfig) *Service {
	return &Service{store: s, cfg: cfg}
}

// Balance returns the user's current point balance; a user with no record
// has zero points.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	raw, err := s.store.Get(ctx, pointsKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ReferralStats returns how many users this user referred and how many
// points those referrals earned.
func (s *Service) ReferralStats(ctx context.Context, userID int64) (count, points int64, err error) {
	count, err = s.counter(ctx, referralsKey(userID))
	if err != nil {
		return 0, 0, err
	}
	points, err = s.counter(ctx, referralPointsKey(userID))
	if err != nil {
		return 0, 0, err
	}
	return count, points, nil
}

func (s *Service) counter(ctx context.Context, key string) (int64, error) {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// GrantDaily credits the daily bonus. The claim marker is a PutNX with a
// 24h expiry, so exactly one claim per user per window succeeds regardless
// of concurrent taps. On a rejected claim the remaining cooldown is
// reported alongside ErrDailyClaimed.
func (s *Service) GrantDaily(ctx context.Context, userID int64) (balance int64, remaining time.Duration, err error) {
	ok, err := s.store.PutNX(ctx, dailyKey(userID), "1", dailyCooldown)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		remaining, err = s.store.TTL(ctx, dailyKey(userID))
		if errors.Is(err, store.ErrNotFound) {
			// Marker expired between PutNX and TTL; treat as full cooldown.
			remaining = dailyCooldown
			err = nil
		}
		if err != nil {
			return 0, 0, err
		}
		return 0, remaining, ErrDailyClaimed
	}

	balance, err = s.store.IncrBy(ctx, pointsKey(userID), s.cfg.DailyBonus)
	if err != nil {
		return 0, 0, err
	}
	logger.SVCLedger.Info("daily bonus granted",
		slog.String("event", "ledger.daily"),
		slog.Int64("user_id", userID),
		slog.Int64("points", s.cfg.DailyBonus),
		slog.Int64("balance", balance),
	)
	return balance, 0, nil
}

// AttributeReferral credits both sides of a referral: the referrer for
// bringing referredID in, and the referred user for joining. Each user can
// be attributed at most once for their whole lifetime; the
// referred:<userId> marker is the one-shot guard. Self-referrals are
// rejected. Reports whether the bonus was credited.
func (s *Service) AttributeReferral(ctx context.Context, referrerID, referredID int64) (bool, error) {
	if referrerID == referredID {
		return false, ErrSelfReferral
	}
	ok, err := s.store.PutNX(ctx, referredKey(referredID), strconv.FormatInt(referrerID, 10), 0)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if _, err := s.store.IncrBy(ctx, referralsKey(referrerID), 1); err != nil {
		return false, err
	}
	if _, err := s.store.IncrBy(ctx, referralPointsKey(referrerID), s.cfg.ReferralBonus); err != nil {
		return false, err
	}
	if _, err := s.store.IncrBy(ctx, pointsKey(referrerID), s.cfg.ReferralBonus); err != nil {
		return false, err
	}
	if _, err := s.store.IncrBy(ctx, pointsKey(referredID), s.cfg.ReferralBonus); err != nil {
		return false, err
	}

	logger.SVCLedger.Info("referral credited",
		slog.String("event", "ledger.referral"),
		slog.Int64("referrer_id", referrerID),
		slog.Int64("referred_id", referredID),
		slog.Int64("points", s.cfg.ReferralBonus),
	)
	return true, nil
}

// ParseValidity parses a code lifetime spec: a positive integer followed by
// 'h' (hours) or 'd' (days), e.g. "12h" or "7d".
func ParseValidity(spec string) (time.Duration, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if len(spec) < 2 {
		return 0, ErrInvalidFormat
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n <= 0 {
		return 0, ErrInvalidFormat
	}
	switch spec[len(spec)-1] {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, ErrInvalidFormat
	}
}

// MintCode creates a redeem code worth value points, valid for the given
// lifetime. Code records are kept forever as a redemption audit trail;
// expiry is enforced by the document's own timestamp, not a store TTL.
// The token carries enough randomness that a PutNX collision is
// effectively impossible, but the write is conditional anyway and retried
// with a fresh token if it ever loses.
func (s *Service) MintCode(ctx context.Context, mintedBy, value int64, validity time.Duration) (string, time.Time, error) {
	if value <= 0 {
		return "", time.Time{}, ErrInvalidAmount
	}
	if validity <= 0 {
		return "", time.Time{}, ErrInvalidFormat
	}

	expiresAt := time.Now().Add(validity).UTC().Truncate(time.Second)
	doc, err := json.Marshal(codeDoc{Value: value, ExpiresAt: expiresAt, MintedBy: mintedBy})
	if err != nil {
		return "", time.Time{}, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		code := newCodeToken()
		ok, err := s.store.PutNX(ctx, redeemKey(code), string(doc), 0)
		if err != nil {
			return "", time.Time{}, err
		}
		if ok {
			logger.SVCLedger.Info("code minted",
				slog.String("event", "ledger.mint"),
				slog.String("code", code),
				slog.Int64("value", value),
				slog.String("expiry", expiresAt.Format(time.RFC3339)),
			)
			return code, expiresAt, nil
		}
	}
	return "", time.Time{}, fmt.Errorf("ledger: code token collision")
}

func newCodeToken() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "C0de-" + raw[:8]
}

// RedeemCode credits the code's value to the user. A code can be redeemed
// once per user; the redeemlock PutNX guard makes a double submit lose even
// when two requests race. The lock value records the redemption timestamp
// and is never deleted, so redemptions stay auditable.
func (s *Service) RedeemCode(ctx context.Context, userID int64, code string) (value, balance int64, err error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, 0, ErrCodeNotFound
	}

	raw, err := s.store.Get(ctx, redeemKey(code))
	if errors.Is(err, store.ErrNotFound) {
		return 0, 0, ErrCodeNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	var doc codeDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return 0, 0, ErrCodeNotFound
	}
	if !doc.ExpiresAt.IsZero() && time.Now().After(doc.ExpiresAt) {
		return 0, 0, ErrCodeExpired
	}

	redeemedAt := time.Now().UTC().Format(time.RFC3339)
	ok, err := s.store.PutNX(ctx, redeemLockKey(code, userID), redeemedAt, 0)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, ErrAlreadyRedeemed
	}

	balance, err = s.store.IncrBy(ctx, pointsKey(userID), doc.Value)
	if err != nil {
		return 0, 0, err
	}
	logger.SVCLedger.Info("code redeemed",
		slog.String("event", "ledger.redeem"),
		slog.String("code", code),
		slog.Int64("user_id", userID),
		slog.Int64("value", doc.Value),
		slog.Int64("balance", balance),
	)
	return doc.Value, balance, nil
}

// Grant credits points by admin fiat. Only positive amounts are allowed;
// there is no deduction path.
func (s *Service) Grant(ctx context.Context, targetID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.store.IncrBy(ctx, pointsKey(targetID), amount)
	if err != nil {
		return 0, err
	}
	logger.SVCLedger.Info("admin grant",
		slog.String("event", "ledger.grant"),
		slog.Int64("target_id", targetID),
		slog.Int64("points", amount),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

// TopReferrers returns up to limit users ordered by referral count
// descending, ties broken by ascending user ID for a stable listing.
func (s *Service) TopReferrers(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = s.cfg.TopLimit
	}
	entries, err := s.store.List(ctx, referralsPrefix)
	if err != nil {
		return nil, err
	}

	standings := make([]Standing, 0, len(entries))
	for key, raw := range entries {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, referralsPrefix), 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		standings = append(standings, Standing{UserID: id, Referrals: n})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Referrals != standings[j].Referrals {
			return standings[i].Referrals > standings[j].Referrals
		}
		return standings[i].UserID < standings[j].UserID
	})
	if len(standings) > limit {
		standings = standings[:limit]
	}
	return standings, nil
}
