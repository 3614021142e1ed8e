package mailbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	coreconfig "dropbot/core/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(coreconfig.MailboxConfig{BaseURL: srv.URL + "/", TimeoutSeconds: 2})
}

func TestListDomains(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "getDomainList" {
			t.Errorf("unexpected action %q", got)
		}
		w.Write([]byte(`["1secmail.com","1secmail.org","1secmail.net"]`))
	})

	domains, err := c.ListDomains(context.Background())
	if err != nil {
		t.Fatalf("list domains: %v", err)
	}
	if len(domains) != 3 || domains[0] != "1secmail.com" {
		t.Fatalf("unexpected domains: %v", domains)
	}
}

func TestListDomainsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	if _, err := c.ListDomains(context.Background()); err == nil {
		t.Fatal("expected error for empty domain list")
	}
}

func TestListMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "getMessages" || q.Get("login") != "abc123" || q.Get("domain") != "1secmail.com" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`[{"id":84201,"from":"no-reply@example.com","subject":"Your code","date":"2025-06-01 12:00:00"}]`))
	})

	msgs, err := c.ListMessages(context.Background(), "abc123", "1secmail.com")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].ID != 84201 || msgs[0].Subject != "Your code" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestListMessagesEmptyInbox(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	msgs, err := c.ListMessages(context.Background(), "abc123", "1secmail.com")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty inbox, got %v", msgs)
	}
}

func TestReadMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "readMessage" || q.Get("id") != "84201" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`{"id":84201,"from":"no-reply@example.com","subject":"Your code","date":"2025-06-01 12:00:00","textBody":"Code: 4321","attachments":[{"filename":"invoice.pdf","contentType":"application/pdf","size":1024}]}`))
	})

	msg, err := c.ReadMessage(context.Background(), "abc123", "1secmail.com", 84201)
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if msg.TextBody != "Code: 4321" {
		t.Fatalf("unexpected body: %q", msg.TextBody)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "invoice.pdf" {
		t.Fatalf("unexpected attachments: %+v", msg.Attachments)
	}
}

func TestProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})
	if _, err := c.ListMessages(context.Background(), "abc123", "1secmail.com"); err == nil {
		t.Fatal("expected error on provider 500")
	}
}

func TestRandomAddress(t *testing.T) {
	c := New(coreconfig.MailboxConfig{BaseURL: "https://example.invalid/"})

	addr := c.RandomAddress("1secmail.com")
	login, domain, err := SplitAddress(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if domain != "1secmail.com" {
		t.Fatalf("unexpected domain: %s", domain)
	}
	if len(login) != localPartLength {
		t.Fatalf("unexpected local part length: %d", len(login))
	}
	if strings.ToLower(login) != login {
		t.Fatalf("local part must be lowercase: %s", login)
	}

	if other := c.RandomAddress("1secmail.com"); other == addr {
		t.Fatalf("expected distinct addresses, got %s twice", addr)
	}
}

func TestSplitAddressMalformed(t *testing.T) {
	for _, bad := range []string{"", "no-at-sign", "@domain", "login@"} {
		if _, _, err := SplitAddress(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestAttachmentURL(t *testing.T) {
	c := New(coreconfig.MailboxConfig{BaseURL: "https://mail.example/api/v1/"})

	raw := c.AttachmentURL("abc123", "1secmail.com", 84201, "invoice.pdf")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("action") != "download" || q.Get("file") != "invoice.pdf" || q.Get("id") != "84201" {
		t.Fatalf("unexpected url: %s", raw)
	}
}
