package bot

import (
	"fmt"
	"strings"
	"time"

	"dropbot/internal/mailbox"
)

const (
	textWelcome = "Welcome! I hand out disposable email addresses.\n" +
		"Generate one, receive mail right here, and throw it away when you are done.\n\n" +
		"Collect points along the way: /daily, /ref, /redeem."

	textNoMailbox = "You have no address yet. Generate one to start receiving mail."

	textHelp = "*Mailbox*\n" +
		"/start — main menu\n" +
		"/myemail — show your current address\n\n" +
		"*Points*\n" +
		"/daily — claim the daily bonus\n" +
		"/points — your balance\n" +
		"/ref — your referral link\n" +
		"/top — top referrers\n" +
		"/redeem <code> — redeem a promo code"

	textPickDomain   = "Pick a domain for your new address:"
	textInboxEmpty   = "Inbox is empty. Give it a minute and refresh."
	textUnknown      = "I don't know that one. Try /help."
	textAdminsOnly   = "This command is for admins."
	textRateLimited  = "Easy! One action per second."
	textMailboxGone  = "Mailbox deleted. Generate a new address any time."
	textProviderDown = "The mail provider is not responding right now. Try again in a moment."
)

func textMailboxActive(address string) string {
	return fmt.Sprintf("Your address:\n`%s`\n\nTap the address to copy it. Mail arrives in the inbox below.", address)
}

func textMyEmail(address string) string {
	return fmt.Sprintf("Your current address: `%s`", address)
}

func textInboxHeader(address string, count int) string {
	return fmt.Sprintf("Inbox for `%s` — %d message(s). Tap one to read it.", address, count)
}

// textMessage renders a full message as plain text; provider-supplied
// fields go out without a parse mode so they cannot break formatting.
func textMessage(msg *mailbox.Message) string {
	body := msg.TextBody
	if strings.TrimSpace(body) == "" {
		body = msg.Body
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "(empty body)"
	}
	const bodyLimit = 3500
	if len(body) > bodyLimit {
		body = body[:bodyLimit] + "\n[...truncated]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", msg.Date)
	b.WriteString(body)
	if n := len(msg.Attachments); n > 0 {
		fmt.Fprintf(&b, "\n\n%d attachment(s) below.", n)
	}
	return b.String()
}

func textDailyGranted(bonus, balance int64) string {
	return fmt.Sprintf("Daily bonus claimed: *+%d* points. Balance: *%d*.", bonus, balance)
}

func textDailyCooldown(remaining time.Duration) string {
	return fmt.Sprintf("Already claimed today. Come back in *%s*.", fmtDuration(remaining))
}

func textPoints(balance, refCount, refPoints int64) string {
	return fmt.Sprintf("Balance: *%d* points\nReferrals: *%d* (earned %d points)", balance, refCount, refPoints)
}

func textReferral(link string, bonus, count int64) string {
	return fmt.Sprintf("Share your link and earn *+%d* points per new user:\n%s\n\nReferred so far: *%d*", bonus, link, count)
}

func textReferralCredited(bonus int64) string {
	return fmt.Sprintf("Someone joined with your link! *+%d* points.", bonus)
}

func textReferralJoined(bonus int64) string {
	return fmt.Sprintf("You joined via a referral link: *+%d* points for you too.", bonus)
}

func textRedeemed(value, balance int64) string {
	return fmt.Sprintf("Code accepted: *+%d* points. Balance: *%d*.", value, balance)
}

func textMinted(code string, value int64, expiresAt time.Time) string {
	return fmt.Sprintf("Code minted: `%s`\nValue: %d points\nValid until: %s",
		code, value, expiresAt.Format("2006-01-02 15:04 MST"))
}

func textGranted(targetID, amount, balance int64) string {
	return fmt.Sprintf("Credited user %d with %d points. New balance: %d.", targetID, amount, balance)
}

func fmtDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func truncateLabel(s string, limit int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no subject)"
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
