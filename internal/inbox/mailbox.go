// Package inbox watches the outreach mailbox for replies and
// reconciles them against known leads.
package inbox

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	// Register common charsets for message decoding
	_ "github.com/emersion/go-message/charset"

	"github.com/vantix/leads-engine/internal/model"
)

// Message is one unread inbox message, reduced to what the
// reconciler needs.
type Message struct {
	SeqNum  uint32
	From    string // raw From header
	Subject string
	Body    string // first plain-text non-attachment part
}

// Mailbox provides access to unread messages. Implemented by
// IMAPMailbox; faked in tests.
type Mailbox interface {
	Unread() ([]Message, error)
	MarkSeen(seqNum uint32) error
	Close() error
}

// IMAPMailbox implements Mailbox over IMAP
type IMAPMailbox struct {
	client *client.Client
}

// DialIMAP connects, authenticates and selects the configured folder
func DialIMAP(cfg model.InboxConfig) (*IMAPMailbox, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if err := c.Login(cfg.Address, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select %s: %w", folder, err)
	}

	return &IMAPMailbox{client: c}, nil
}

// Unread fetches all unseen messages in full
func (m *IMAPMailbox) Unread() ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	ids, err := m.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	// Peek: fetching must not flip the Seen flag, unmatched messages
	// stay unread for the operator.
	section.Peek = true
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- m.client.Fetch(seqset, items, messages)
	}()

	var out []Message
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		parsed := parseMessage(msg.SeqNum, body)
		out = append(out, parsed)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch unseen: %w", err)
	}
	return out, nil
}

// MarkSeen flags a message as read
func (m *IMAPMailbox) MarkSeen(seqNum uint32) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)
	op := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := m.client.Store(seqset, op, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// Close logs out of the IMAP session
func (m *IMAPMailbox) Close() error {
	return m.client.Logout()
}

// parseMessage extracts the From header, subject and plain-text body
func parseMessage(seqNum uint32, r io.Reader) Message {
	msg := Message{SeqNum: seqNum}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return msg
	}

	msg.From = mr.Header.Get("From")
	msg.Subject, _ = mr.Header.Subject()
	msg.Body = extractPlainBody(mr)
	return msg
}

// extractPlainBody returns the first text/plain non-attachment part,
// or the first inline part of any type when no plain part exists.
func extractPlainBody(mr *mail.Reader) string {
	var fallback string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachment
		}

		raw, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		text := decodeText(raw)

		contentType, _, _ := header.ContentType()
		if contentType == "text/plain" || contentType == "" {
			return text
		}
		if fallback == "" {
			fallback = text
		}
	}
	return fallback
}

// decodeText decodes bytes as UTF-8, falling back to a permissive
// single-byte decoding when the content is not valid UTF-8.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}
