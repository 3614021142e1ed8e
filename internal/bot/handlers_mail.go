package bot

import (
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"dropbot/core/logger"
	"dropbot/core/telegram/callbacks"
	tghelpers "dropbot/core/telegram/helpers"
	"dropbot/internal/mailbox"
	"dropbot/internal/session"
	"log/slog"
)

// handleStart begins a fresh flow. A plain /start discards any stored
// address and offers the domain picker. A /start payload is a referral
// marker from a shared deep link; that path attributes the referral and
// keeps the existing mailbox, if any.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		credited := a.attributeReferral(c, payload)
		sess, err := a.sessions.Get(ctx, c.Chat().ID)
		if err != nil {
			return err
		}
		if err := tghelpers.SendMD(c, textWelcome); err != nil {
			return err
		}
		if credited {
			if err := tghelpers.SendMD(c, textReferralJoined(a.cfg.Ledger.ReferralBonus)); err != nil {
				return err
			}
		}
		return a.sendMain(c, sess)
	}

	if err := a.sessions.Delete(ctx, c.Chat().ID); err != nil {
		return err
	}
	if err := tghelpers.SendMD(c, textWelcome); err != nil {
		return err
	}
	domains, err := a.mail.ListDomains(ctx)
	if err != nil {
		return tghelpers.SendMD(c, textProviderDown, kbNoMailbox())
	}
	return tghelpers.SendMD(c, textPickDomain, kbDomainPicker(domains))
}

func (a *App) attributeReferral(c tele.Context, payload string) bool {
	ctx := tghelpers.BuildContext(c)
	referrerID, err := parseReferralPayload(payload)
	if err != nil {
		return false
	}
	credited, err := a.ledger.AttributeReferral(ctx, referrerID, c.Sender().ID)
	if err != nil {
		logger.SVCLedger.Warn("referral attribution failed",
			slog.String("event", "ledger.referral"),
			slog.Int64("referrer_id", referrerID),
			slog.String("err", err.Error()),
		)
		return false
	}
	if credited {
		_ = tghelpers.SendTo(c, referrerID, textReferralCredited(a.cfg.Ledger.ReferralBonus))
	}
	return credited
}

// parseReferralPayload accepts both "ref_<id>" links and bare numeric ids.
func parseReferralPayload(payload string) (int64, error) {
	payload = strings.TrimPrefix(payload, "ref_")
	return strconv.ParseInt(payload, 10, 64)
}

func (a *App) handleMyEmail(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	if sess.Address == "" {
		return tghelpers.SendMD(c, textNoMailbox, kbNoMailbox())
	}
	return tghelpers.SendMD(c, textMyEmail(sess.Address), kbMailboxActive())
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendMD(c, textHelp)
}

func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, textUnknown)
}

// sendMain sends the menu for the current session as a fresh message.
func (a *App) sendMain(c tele.Context, sess session.Session) error {
	if sess.Address == "" {
		return tghelpers.SendMD(c, textNoMailbox, kbNoMailbox())
	}
	return tghelpers.SendMD(c, textMailboxActive(sess.Address), kbMailboxActive())
}

// editMain redraws the menu in place of the tapped message.
func (a *App) editMain(c tele.Context, sess session.Session) error {
	if sess.Address == "" {
		return tghelpers.EditOrSendMD(c, textNoMailbox, kbNoMailbox())
	}
	return tghelpers.EditOrSendMD(c, textMailboxActive(sess.Address), kbMailboxActive())
}

// cbShowDomains opens the domain picker for a new address.
func (a *App) cbShowDomains(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	domains, err := a.mail.ListDomains(ctx)
	if err != nil {
		return tghelpers.EditOrSendMD(c, textProviderDown, kbNoMailbox())
	}
	return tghelpers.EditOrSendMD(c, textPickDomain, kbDomainPicker(domains))
}

// cbGenerate allocates a fresh address on the chosen domain. Any previous
// address is abandoned; the session record is the single source of truth.
func (a *App) cbGenerate(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	domain, ok := callbacks.PayloadString(c)
	if !ok {
		return a.cbShowDomains(c)
	}

	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	sess = sess.Generate(a.mail.RandomAddress(domain))
	if err := a.sessions.Put(ctx, c.Chat().ID, sess); err != nil {
		return err
	}

	logger.SVCSession.Info("mailbox generated",
		slog.String("event", "session.generate"),
		slog.Int64("chat_id", c.Chat().ID),
		slog.String("address", sess.Address),
	)
	return a.editMain(c, sess)
}

// cbRefreshInbox lists the mailbox. Tapping refresh repeatedly is fine:
// the transition is idempotent and the listing is re-fetched each time.
func (a *App) cbRefreshInbox(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	next, err := sess.Refresh()
	if errors.Is(err, session.ErrNoMailbox) {
		return tghelpers.EditOrSendMD(c, textNoMailbox, kbNoMailbox())
	}
	if err != nil {
		return err
	}

	login, domain, err := a.splitSessionAddress(next)
	if err != nil {
		return a.resetBroken(c)
	}
	msgs, err := a.mail.ListMessages(ctx, login, domain)
	if err != nil {
		return tghelpers.EditOrSendMD(c, textProviderDown, kbMailboxActive())
	}
	if err := a.sessions.Put(ctx, c.Chat().ID, next); err != nil {
		return err
	}

	if len(msgs) == 0 {
		return tghelpers.EditOrSendMD(c, textInboxHeader(next.Address, 0)+"\n\n"+textInboxEmpty, kbInbox(nil))
	}
	return tghelpers.EditOrSendMD(c, textInboxHeader(next.Address, len(msgs)), kbInbox(msgs))
}

// cbReadMessage opens one message. The body goes out as plain text; the
// attachments become URL buttons pointing straight at the provider.
func (a *App) cbReadMessage(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	msgID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return a.cbRefreshInbox(c)
	}

	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	next, err := sess.Read(msgID)
	if errors.Is(err, session.ErrNoMailbox) {
		return tghelpers.EditOrSendMD(c, textNoMailbox, kbNoMailbox())
	}
	if err != nil {
		return err
	}

	login, domain, err := a.splitSessionAddress(next)
	if err != nil {
		return a.resetBroken(c)
	}
	msg, err := a.mail.ReadMessage(ctx, login, domain, msgID)
	if err != nil {
		return tghelpers.EditOrSendMD(c, textProviderDown, kbInbox(nil))
	}
	if err := a.sessions.Put(ctx, c.Chat().ID, next); err != nil {
		return err
	}

	links := make([]attachmentLink, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		links = append(links, attachmentLink{
			Name: att.Filename,
			URL:  a.mail.AttachmentURL(login, domain, msgID, att.Filename),
		})
	}
	logger.SVCSession.Debug("message opened",
		slog.String("event", "session.read"),
		slog.Int64("chat_id", c.Chat().ID),
		slog.Int64("msg_id", msgID),
		slog.Int("attachments", len(links)),
	)
	return tghelpers.SendText(c, textMessage(msg), &tele.SendOptions{ReplyMarkup: kbMessage(links)})
}

// cbBackMain returns to the main menu, keeping the address if one exists.
func (a *App) cbBackMain(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	next := sess.Back()
	if err := a.sessions.Put(ctx, c.Chat().ID, next); err != nil {
		return err
	}
	return a.editMain(c, next)
}

// cbDeleteMailbox drops the address entirely.
func (a *App) cbDeleteMailbox(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sess, err := a.sessions.Get(ctx, c.Chat().ID)
	if err != nil {
		return err
	}
	next := sess.Drop()
	if err := a.sessions.Put(ctx, c.Chat().ID, next); err != nil {
		return err
	}
	logger.SVCSession.Info("mailbox dropped",
		slog.String("event", "session.drop"),
		slog.Int64("chat_id", c.Chat().ID),
		slog.String("address", sess.Address),
	)
	return tghelpers.EditOrSendMD(c, textMailboxGone, kbNoMailbox())
}

func (a *App) splitSessionAddress(sess session.Session) (login, domain string, err error) {
	return mailbox.SplitAddress(sess.Address)
}

// resetBroken recovers a chat whose stored address is unusable.
func (a *App) resetBroken(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.sessions.Delete(ctx, c.Chat().ID); err != nil {
		return err
	}
	return tghelpers.EditOrSendMD(c, textNoMailbox, kbNoMailbox())
}
