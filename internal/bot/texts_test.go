package bot

import (
	"strings"
	"testing"
	"time"

	"dropbot/internal/mailbox"
)

func TestParseReferralPayload(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"ref_123", 123, true},
		{"123", 123, true},
		{"ref_abc", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseReferralPayload(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("%q: got %d, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q: expected error", tc.in)
		}
	}
}

func TestFmtDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{13*time.Hour + 37*time.Minute, "13h 37m"},
		{45 * time.Minute, "45m"},
		{-time.Minute, "0m"},
		{24 * time.Hour, "24h 0m"},
	}
	for _, tc := range cases {
		if got := fmtDuration(tc.in); got != tc.want {
			t.Errorf("%v: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	if got := truncateLabel("", 10); got != "(no subject)" {
		t.Errorf("empty: got %q", got)
	}
	if got := truncateLabel("short", 10); got != "short" {
		t.Errorf("short: got %q", got)
	}
	long := strings.Repeat("a", 50)
	got := truncateLabel(long, 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Errorf("long: got %q", got)
	}
}

func TestTextMessage(t *testing.T) {
	msg := &mailbox.Message{
		From:     "no-reply@example.com",
		Subject:  "Your code",
		Date:     "2025-06-01 12:00:00",
		TextBody: "Code: 4321",
		Attachments: []mailbox.Attachment{
			{Filename: "invoice.pdf"},
		},
	}
	out := textMessage(msg)
	for _, want := range []string{"From: no-reply@example.com", "Subject: Your code", "Code: 4321", "1 attachment(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	// HTML-only mail falls back to Body, empty mail gets a placeholder.
	out = textMessage(&mailbox.Message{Body: "<p>hi</p>"})
	if !strings.Contains(out, "<p>hi</p>") {
		t.Errorf("expected body fallback, got:\n%s", out)
	}
	out = textMessage(&mailbox.Message{})
	if !strings.Contains(out, "(empty body)") {
		t.Errorf("expected placeholder, got:\n%s", out)
	}

	// Oversized bodies are cut below the Telegram message limit.
	out = textMessage(&mailbox.Message{TextBody: strings.Repeat("x", 5000)})
	if len(out) > 4000 || !strings.Contains(out, "[...truncated]") {
		t.Errorf("expected truncation, len=%d", len(out))
	}
}
