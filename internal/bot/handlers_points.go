package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	tghelpers "dropbot/core/telegram/helpers"
	"dropbot/internal/ledger"
)

func (a *App) handleDaily(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	balance, remaining, err := a.ledger.GrantDaily(ctx, c.Sender().ID)
	if errors.Is(err, ledger.ErrDailyClaimed) {
		return tghelpers.SendMD(c, textDailyCooldown(remaining))
	}
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, textDailyGranted(a.cfg.Ledger.DailyBonus, balance))
}

func (a *App) handlePoints(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	balance, err := a.ledger.Balance(ctx, userID)
	if err != nil {
		return err
	}
	refCount, refPoints, err := a.ledger.ReferralStats(ctx, userID)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, textPoints(balance, refCount, refPoints))
}

func (a *App) handleRef(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	refCount, _, err := a.ledger.ReferralStats(ctx, userID)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("https://t.me/%s?start=ref_%d", a.botUsername(), userID)
	return tghelpers.SendMD(c, textReferral(link, a.cfg.Ledger.ReferralBonus, refCount))
}

func (a *App) handleTop(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	top, err := a.ledger.TopReferrers(ctx, a.cfg.Ledger.TopLimit)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		return tghelpers.SendMD(c, "Nobody has referred anyone yet. Be the first: /ref")
	}

	var b strings.Builder
	b.WriteString("*Top referrers*\n")
	for i, row := range top {
		fmt.Fprintf(&b, "%d. user %d — %d referral(s)\n", i+1, row.UserID, row.Referrals)
	}
	return tghelpers.SendMD(c, b.String())
}

func (a *App) handleRedeem(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) != 1 {
		return tghelpers.SendMD(c, "Usage: /redeem <code>")
	}

	value, balance, err := a.ledger.RedeemCode(ctx, c.Sender().ID, args[0])
	switch {
	case errors.Is(err, ledger.ErrCodeNotFound):
		return tghelpers.SendMD(c, "That code does not exist.")
	case errors.Is(err, ledger.ErrCodeExpired):
		return tghelpers.SendMD(c, "That code has expired.")
	case errors.Is(err, ledger.ErrAlreadyRedeemed):
		return tghelpers.SendMD(c, "You already redeemed this code.")
	case err != nil:
		return err
	}
	return tghelpers.SendMD(c, textRedeemed(value, balance))
}

// handleGen mints a redeem code: /gen <value> <Nh|Nd>. Admin only.
func (a *App) handleGen(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendMD(c, "Usage: /gen <value> <validity>, e.g. /gen 50 12h or /gen 100 7d")
	}

	value, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || value <= 0 {
		return tghelpers.SendMD(c, "Value must be a positive number of points.")
	}
	validity, err := ledger.ParseValidity(args[1])
	if errors.Is(err, ledger.ErrInvalidFormat) {
		return tghelpers.SendMD(c, "Validity must look like 12h or 7d.")
	}
	if err != nil {
		return err
	}

	code, expiresAt, err := a.ledger.MintCode(ctx, c.Sender().ID, value, validity)
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, textMinted(code, value, expiresAt))
}

// handleGrant credits a user's balance: /grant <userId> <amount>. Admin only.
func (a *App) handleGrant(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	args := c.Args()
	if len(args) != 2 {
		return tghelpers.SendMD(c, "Usage: /grant <userId> <amount>")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		return tghelpers.SendMD(c, "User id must be a positive number.")
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return tghelpers.SendMD(c, "Amount must be a positive number of points.")
	}

	balance, err := a.ledger.Grant(ctx, targetID, amount)
	if errors.Is(err, ledger.ErrInvalidAmount) {
		return tghelpers.SendMD(c, "Amount must be a positive number of points.")
	}
	if err != nil {
		return err
	}
	return tghelpers.SendMD(c, textGranted(targetID, amount, balance))
}
