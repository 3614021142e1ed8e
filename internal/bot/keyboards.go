package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"dropbot/core/telegram/keyboard"
	"dropbot/internal/mailbox"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Callback keys. Inline buttons carry these as the telebot unique part;
// the payload after '|' holds the domain or message id.
const (
	cbGenNew    = "gen_new"
	cbGenDomain = "gen_domain"
	cbRefresh   = "refresh_inbox"
	cbRead      = "read_msg"
	cbBack      = "back_main"
	cbDelete    = "del_mail"
)

func kbNoMailbox() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "📬 Generate address", Unique: cbGenNew},
	})
}

func kbMailboxActive() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🔄 Refresh inbox", Unique: cbRefresh},
		},
		[]keyboard.InlineBtn{
			{Text: "📬 New address", Unique: cbGenNew},
			{Text: "🗑 Delete", Unique: cbDelete},
		},
	)
}

func kbDomainPicker(domains []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(domains)+1)
	for _, d := range domains {
		buttons = append(buttons, keyboard.InlineBtn{Text: "@" + d, Unique: cbGenDomain, Data: d})
	}
	markup := keyboard.InlineButtonsNPerRow(buttons, 2)
	back := keyboard.InlineButtons([]keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbBack}})
	markup.InlineKeyboard = append(markup.InlineKeyboard, back.InlineKeyboard...)
	return markup
}

func kbInbox(msgs []mailbox.MessageSummary) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(msgs)+1)
	for _, m := range msgs {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "✉️ " + truncateLabel(m.Subject, 40),
			Unique: cbRead,
			Data:   formatID(m.ID),
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "🔄 Refresh", Unique: cbRefresh},
		{Text: "⬅️ Back", Unique: cbBack},
	})
	return keyboard.InlineButtonsRows(rows...)
}

// kbMessage links each attachment as a direct download plus navigation.
func kbMessage(att []attachmentLink) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(att)+1)
	for _, a := range att {
		rows = append(rows, []keyboard.InlineBtn{{Text: "📎 " + truncateLabel(a.Name, 40), URL: a.URL}})
	}
	rows = append(rows, []keyboard.InlineBtn{
		{Text: "🔄 Inbox", Unique: cbRefresh},
		{Text: "⬅️ Menu", Unique: cbBack},
	})
	return keyboard.InlineButtonsRows(rows...)
}

type attachmentLink struct {
	Name string
	URL  string
}
