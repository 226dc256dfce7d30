package imapmail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

// Connector opens TLS IMAP sessions against a single mailbox folder.
type Connector struct {
	host     string
	port     int
	username string
	password string
	folder   string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewConnector creates a new IMAP connector. The timeout bounds the
// dial, the TLS handshake and every subsequent command on the session.
func NewConnector(host string, port int, username, password, folder string, timeout time.Duration, logger *zap.Logger) *Connector {
	return &Connector{
		host:     host,
		port:     port,
		username: username,
		password: password,
		folder:   folder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Connect dials the server, authenticates and selects the target
// folder. The caller owns the returned session and must Close it.
func (c *Connector) Connect(ctx context.Context) (core.MailboxSession, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: c.timeout}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", core.ErrConnection, addr, err)
	}

	s := &session{
		client:  imapclient.New(conn, nil),
		conn:    conn,
		timeout: c.timeout,
		logger:  c.logger,
	}

	s.armDeadline(ctx)
	err = s.client.Login(c.username, c.password).Wait()
	s.disarmDeadline()
	if err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("%w: login as %s: %v", core.ErrConnection, c.username, err)
	}

	s.armDeadline(ctx)
	_, err = s.client.Select(c.folder, nil).Wait()
	s.disarmDeadline()
	if err != nil {
		_ = s.client.Logout().Wait()
		return nil, fmt.Errorf("%w: selecting %s: %v", core.ErrConnection, c.folder, err)
	}

	c.logger.Debug("Mailbox session opened",
		zap.String("server", addr),
		zap.String("folder", c.folder))

	return s, nil
}

type session struct {
	client  *imapclient.Client
	conn    net.Conn
	timeout time.Duration
	logger  *zap.Logger
}

// armDeadline bounds the next command so a silent server cannot block
// the session forever. The context deadline wins when it is earlier
// than the configured timeout.
func (s *session) armDeadline(ctx context.Context) {
	var deadline time.Time
	if s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if !deadline.IsZero() {
		_ = s.conn.SetDeadline(deadline)
	}
}

func (s *session) disarmDeadline() {
	_ = s.conn.SetDeadline(time.Time{})
}

// Search returns the UIDs of unseen messages received since the given
// time, in server order. The SINCE criterion has date-only granularity
// on the wire; the unseen flag, not the timestamp, is what keeps
// already-notified mail out of later cycles.
func (s *session) Search(ctx context.Context, since time.Time) ([]core.MessageRef, error) {
	criteria := &imap.SearchCriteria{
		Since:   since,
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	s.armDeadline(ctx)
	data, err := s.client.UIDSearch(criteria, nil).Wait()
	s.disarmDeadline()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSearch, err)
	}

	uids := data.AllUIDs()
	refs := make([]core.MessageRef, 0, len(uids))
	for _, uid := range uids {
		refs = append(refs, core.MessageRef{UID: uint32(uid)})
	}
	return refs, nil
}

// FetchRaw fetches the full message with a peek body section so the
// fetch itself never sets the seen flag.
func (s *session) FetchRaw(ctx context.Context, ref core.MessageRef) ([]byte, error) {
	uidSet := imap.UIDSetNum(imap.UID(ref.UID))
	bodySection := &imap.FetchItemBodySection{Peek: true}

	s.armDeadline(ctx)
	defer s.disarmDeadline()

	fetchCmd := s.client.Fetch(uidSet, &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("%w: uid %d not found", core.ErrFetch, ref.UID)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: collecting uid %d: %v", core.ErrFetch, ref.UID, err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("%w: uid %d has no body section", core.ErrFetch, ref.UID)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing fetch for uid %d: %v", core.ErrFetch, ref.UID, err)
	}
	return raw, nil
}

// MarkRead adds the seen flag to a delivered message.
func (s *session) MarkRead(ctx context.Context, ref core.MessageRef) error {
	uidSet := imap.UIDSetNum(imap.UID(ref.UID))

	s.armDeadline(ctx)
	defer s.disarmDeadline()

	storeCmd := s.client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("%w: uid %d: %v", core.ErrMark, ref.UID, err)
	}
	return nil
}

// Close expunges pending flag changes and logs out. An expunge failure
// is logged but does not block the logout.
func (s *session) Close() error {
	s.armDeadline(context.Background())
	defer s.disarmDeadline()

	if err := s.client.Expunge().Close(); err != nil {
		s.logger.Warn("Expunge before logout failed", zap.Error(err))
	}
	if err := s.client.Logout().Wait(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
