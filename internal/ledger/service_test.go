package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	coreconfig "dropbot/core/config"
	"dropbot/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewService(mem, coreconfig.LedgerConfig{
		DailyBonus:    10,
		ReferralBonus: 20,
		TopLimit:      10,
	})
	return svc, mem
}

func TestBalanceDefaultsToZero(t *testing.T) {
	svc, _ := newTestService(t)
	b, err := svc.Balance(context.Background(), 42)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b != 0 {
		t.Fatalf("expected 0, got %d", b)
	}
}

func TestGrantDaily(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mem.SetNow(func() time.Time { return now })

	balance, _, err := svc.GrantDaily(ctx, 42)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}

	_, remaining, err := svc.GrantDaily(ctx, 42)
	if !errors.Is(err, ErrDailyClaimed) {
		t.Fatalf("expected ErrDailyClaimed, got %v", err)
	}
	if remaining != 24*time.Hour {
		t.Fatalf("expected 24h remaining, got %v", remaining)
	}

	// Another user's cooldown is independent.
	balance, _, err = svc.GrantDaily(ctx, 77)
	if err != nil {
		t.Fatalf("other user claim: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected 10, got %d", balance)
	}

	// Past the window the claim succeeds again and stacks.
	now = now.Add(24*time.Hour + time.Minute)
	balance, _, err = svc.GrantDaily(ctx, 42)
	if err != nil {
		t.Fatalf("claim after cooldown: %v", err)
	}
	if balance != 20 {
		t.Fatalf("expected 20, got %d", balance)
	}
}

func TestAttributeReferral(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	credited, err := svc.AttributeReferral(ctx, 100, 200)
	if err != nil {
		t.Fatalf("attribute: %v", err)
	}
	if !credited {
		t.Fatal("expected first attribution to credit")
	}

	// Both sides are credited exactly once.
	b, err := svc.Balance(ctx, 100)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b != 20 {
		t.Fatalf("expected referrer balance 20, got %d", b)
	}
	b, err = svc.Balance(ctx, 200)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b != 20 {
		t.Fatalf("expected referred balance 20, got %d", b)
	}
	count, points, err := svc.ReferralStats(ctx, 100)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 || points != 20 {
		t.Fatalf("expected 1 referral / 20 points, got %d / %d", count, points)
	}

	// The same user cannot be attributed twice, not even to someone else.
	credited, err = svc.AttributeReferral(ctx, 100, 200)
	if err != nil {
		t.Fatalf("repeat attribute: %v", err)
	}
	if credited {
		t.Fatal("repeat attribution must not credit")
	}
	credited, err = svc.AttributeReferral(ctx, 300, 200)
	if err != nil {
		t.Fatalf("steal attribute: %v", err)
	}
	if credited {
		t.Fatal("second referrer must not be credited for the same user")
	}

	if _, err := svc.AttributeReferral(ctx, 200, 200); !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestParseValidity(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"12h", 12 * time.Hour, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"1H", time.Hour, true},
		{" 3d ", 3 * 24 * time.Hour, true},
		{"", 0, false},
		{"h", 0, false},
		{"0h", 0, false},
		{"-2d", 0, false},
		{"12m", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseValidity(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("%q: unexpected error %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("%q: got %v want %v", tc.in, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%q: expected ErrInvalidFormat, got %v", tc.in, err)
		}
	}
}

func TestMintAndRedeem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	code, expiresAt, err := svc.MintCode(ctx, 1, 50, 12*time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if len(code) != len("C0de-XXXXXXXX") || code[:5] != "C0de-" {
		t.Fatalf("unexpected code format: %s", code)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", expiresAt)
	}

	value, balance, err := svc.RedeemCode(ctx, 42, code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if value != 50 || balance != 50 {
		t.Fatalf("expected 50/50, got %d/%d", value, balance)
	}

	if _, _, err := svc.RedeemCode(ctx, 42, code); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}

	// A different user can still redeem the same code.
	value, balance, err = svc.RedeemCode(ctx, 77, code)
	if err != nil {
		t.Fatalf("second user redeem: %v", err)
	}
	if value != 50 || balance != 50 {
		t.Fatalf("expected 50/50 for second user, got %d/%d", value, balance)
	}
}

func TestRedeemUnknownAndExpired(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.RedeemCode(ctx, 42, "C0de-NOPE0000"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
	if _, _, err := svc.RedeemCode(ctx, 42, "  "); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound for blank code, got %v", err)
	}

	// A code past its stated expiry is rejected but never deleted.
	doc := `{"value":50,"expiresAt":"2020-01-01T00:00:00Z","mintedBy":1}`
	if err := mem.Put(ctx, "redeem:C0de-OLD00000", doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := svc.RedeemCode(ctx, 42, "C0de-OLD00000"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
	if _, err := mem.Get(ctx, "redeem:C0de-OLD00000"); err != nil {
		t.Fatalf("expired code record must survive: %v", err)
	}
}

func TestMintValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.MintCode(ctx, 1, 0, time.Hour); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := svc.MintCode(ctx, 1, 10, 0); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestGrant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	balance, err := svc.Grant(ctx, 42, 100)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if balance != 100 {
		t.Fatalf("expected 100, got %d", balance)
	}

	balance, err = svc.Grant(ctx, 42, 30)
	if err != nil {
		t.Fatalf("grant again: %v", err)
	}
	if balance != 130 {
		t.Fatalf("expected 130, got %d", balance)
	}

	for _, bad := range []int64{0, -30} {
		if _, err := svc.Grant(ctx, 42, bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", bad, err)
		}
	}
}

func TestTopReferrers(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	seed := map[string]string{
		"referrals:100": "3",
		"referrals:200": "5",
		"referrals:300": "3",
		"referrals:400": "0",
		"referrals:bad": "x",
	}
	for k, v := range seed {
		if err := mem.Put(ctx, k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}

	top, err := svc.TopReferrers(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []Standing{
		{UserID: 200, Referrals: 5},
		{UserID: 100, Referrals: 3},
		{UserID: 300, Referrals: 3},
	}
	if len(top) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v", len(want), len(top), top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("row %d: got %+v want %+v", i, top[i], want[i])
		}
	}

	top, err = svc.TopReferrers(ctx, 2)
	if err != nil {
		t.Fatalf("top limited: %v", err)
	}
	if len(top) != 2 || top[1].UserID != 100 {
		t.Fatalf("unexpected limited top: %v", top)
	}
}
