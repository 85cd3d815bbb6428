// Package imap polls the user's mailbox for replies to the noon reminder,
// matching the correlation token embedded in the subject line.
package imap

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

// Config holds IMAP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
}

// Inbox implements digest.Inbox. Each lookup dials a fresh connection;
// the poller runs on a long interval, so holding sessions open buys
// nothing.
type Inbox struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an Inbox.
func New(cfg Config, logger *zap.Logger) (*Inbox, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, fmt.Errorf("imap host and username are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{cfg: cfg, logger: logger}, nil
}

// FindReply searches the mailbox for a message whose subject carries the
// token and returns its body as plain text. The matched message is marked
// seen so later polls skip it. Returns found=false when nothing matched.
func (in *Inbox) FindReply(ctx context.Context, token string) (string, bool, error) {
	client, err := imapclient.DialTLS(fmt.Sprintf("%s:%d", in.cfg.Host, in.cfg.Port), nil)
	if err != nil {
		return "", false, fmt.Errorf("dial imap %s: %w", in.cfg.Host, err)
	}
	defer client.Close()

	if err := client.Login(in.cfg.Username, in.cfg.Password).Wait(); err != nil {
		return "", false, fmt.Errorf("imap login: %w", err)
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			in.logger.Debug("imap logout failed", zap.Error(err))
		}
	}()

	if _, err := client.Select(in.cfg.Mailbox, nil).Wait(); err != nil {
		return "", false, fmt.Errorf("select mailbox %s: %w", in.cfg.Mailbox, err)
	}

	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: token}},
	}
	data, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return "", false, fmt.Errorf("imap search %q: %w", token, err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return "", false, nil
	}

	// Take the most recent reply when the user sent several.
	uid := uids[len(uids)-1]
	uidSet := imap.UIDSetNum(uid)
	fetchOptions := &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{{}},
	}
	msgs, err := client.Fetch(uidSet, fetchOptions).Collect()
	if err != nil {
		return "", false, fmt.Errorf("imap fetch uid %d: %w", uid, err)
	}
	if len(msgs) == 0 {
		return "", false, nil
	}
	raw := msgs[0].FindBodySection(&imap.FetchItemBodySection{})
	if len(raw) == 0 {
		return "", false, fmt.Errorf("imap fetch uid %d: empty body", uid)
	}

	text, err := extractText(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse reply uid %d: %w", uid, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, nil
	}

	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Flags:  []imap.Flag{imap.FlagSeen},
		Silent: true,
	}
	if err := client.Store(uidSet, storeFlags, nil).Close(); err != nil {
		in.logger.Warn("failed to mark reply seen", zap.Error(err))
	}
	return text, true, nil
}
