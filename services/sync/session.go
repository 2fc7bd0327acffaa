package sync

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultSessionTimeout = 10 * time.Minute
	commandTimeout        = 30 * time.Second
	fetchTimeout          = 60 * time.Second
)

// FolderSession is one live IMAP session against a single mailbox. A session
// is opened, driven through one or more folder passes, and closed; after a
// timeout fires or Close is called no further operations are valid.
type FolderSession interface {
	Open(ctx context.Context) error
	SelectFolder(path string) (*imap.MailboxStatus, error)
	SearchSince(since *time.Time) ([]uint32, error)
	FetchHeaders(uid uint32) (string, error)
	FetchFull(uid uint32) ([]byte, error)
	Close()
}

// Session implements FolderSession on top of a go-imap client. Two timeouts
// bound it: the connect timeout covers dial plus login, and the session
// timeout covers the whole lifetime. When the session timeout fires the
// underlying transport is torn down and every pending or later call fails
// with a timeout-classified error.
type Session struct {
	cfg    SessionConfig
	client *client.Client

	mu       sync.Mutex
	watchdog *time.Timer
	closed   bool
	timedOut bool
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = defaultSessionTimeout
	}
	return &Session{cfg: cfg}
}

// Open dials, checks capabilities and logs in. On any failure the transport
// is fully released before returning; a failed Open never leaves a half-open
// connection behind.
func (s *Session) Open(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   s.cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	var c *client.Client
	var err error

	if s.cfg.Security == enum.EmailSecurityTLS || s.cfg.Security == enum.EmailSecuritySSL {
		tlsConfig := &tls.Config{
			ServerName: s.cfg.Server,
		}
		c, err = client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}

	if err != nil {
		return fmt.Errorf("connection error: failed to connect to %s: %w", serverAddr, err)
	}

	c.Timeout = s.cfg.ConnectTimeout

	caps, err := c.Capability()
	if err != nil {
		c.Logout()
		return fmt.Errorf("capability error: %w", err)
	}
	log.Printf("[%s] Server capabilities: %v", s.cfg.MailboxID, caps)

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return fmt.Errorf("login error as %s: %w", s.cfg.Username, err)
	}

	s.mu.Lock()
	s.client = c
	// Session lifetime watchdog: force-close the transport so pending
	// commands resolve instead of hanging
	s.watchdog = time.AfterFunc(s.cfg.SessionTimeout, s.expire)
	s.mu.Unlock()

	log.Printf("[%s] Successfully connected to %s", s.cfg.MailboxID, serverAddr)
	return nil
}

func (s *Session) expire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timedOut = true
	c := s.client
	s.mu.Unlock()

	log.Printf("[%s] Session timeout after %v, terminating connection", s.cfg.MailboxID, s.cfg.SessionTimeout)
	if c != nil {
		c.Terminate()
	}
}

// wrapErr converts post-expiry transport failures into the timeout sentinel
// so the classifier reports what actually happened.
func (s *Session) wrapErr(err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	timedOut := s.timedOut
	s.mu.Unlock()
	if timedOut {
		return fmt.Errorf("session expired after %v: %w", s.cfg.SessionTimeout, mailsync_errors.ErrConnectionTimeout)
	}
	return err
}

func (s *Session) liveClient() (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timedOut {
		return nil, fmt.Errorf("session expired after %v: %w", s.cfg.SessionTimeout, mailsync_errors.ErrConnectionTimeout)
	}
	if s.closed || s.client == nil {
		return nil, mailsync_errors.ErrSessionClosed
	}
	return s.client, nil
}

func (s *Session) SelectFolder(path string) (*imap.MailboxStatus, error) {
	c, err := s.liveClient()
	if err != nil {
		return nil, err
	}

	c.Timeout = commandTimeout
	mbox, err := c.Select(path, true)
	c.Timeout = 0
	if err != nil {
		return nil, s.wrapErr(fmt.Errorf("error selecting folder %s: %w", path, err))
	}
	return mbox, nil
}

// SearchSince returns candidate UIDs, oldest first. A nil since means an
// unbounded search (first sync of this mailbox).
func (s *Session) SearchSince(since *time.Time) ([]uint32, error) {
	c, err := s.liveClient()
	if err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	if since != nil {
		criteria.Since = *since
	}

	c.Timeout = commandTimeout
	uids, err := c.UidSearch(criteria)
	c.Timeout = 0
	if err != nil {
		return nil, s.wrapErr(fmt.Errorf("error searching messages: %w", err))
	}
	return uids, nil
}

// FetchHeaders fetches only the header block of one message, without setting
// the \Seen flag.
func (s *Session) FetchHeaders(uid uint32) (string, error) {
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}

	raw, err := s.fetchSection(uid, section)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// FetchFull fetches the entire raw message, without setting the \Seen flag.
func (s *Session) FetchFull(uid uint32) ([]byte, error) {
	section := &imap.BodySectionName{Peek: true}
	return s.fetchSection(uid, section)
}

func (s *Session) fetchSection(uid uint32, section *imap.BodySectionName) ([]byte, error) {
	c, err := s.liveClient()
	if err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	c.Timeout = fetchTimeout
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var data []byte
	for msg := range messages {
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		body, readErr := io.ReadAll(literal)
		if readErr != nil {
			continue
		}
		data = body
	}

	err = <-done
	c.Timeout = 0
	if err != nil {
		return nil, s.wrapErr(fmt.Errorf("error fetching message %d: %w", uid, err))
	}
	if data == nil {
		return nil, fmt.Errorf("fetch of message %d returned no body section", uid)
	}
	return data, nil
}

// Close releases the session. Idempotent; safe to call on a session that
// never opened or already timed out.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.watchdog != nil {
		s.watchdog.Stop()
	}
	c := s.client
	s.client = nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	// Logout can itself hang on a dead connection; give it a short window
	// then cut the transport
	c.Timeout = 5 * time.Second
	done := make(chan error, 1)
	go func() {
		done <- c.Logout()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("[%s] Error during logout: %v", s.cfg.MailboxID, err)
		}
	case <-time.After(5 * time.Second):
		log.Printf("[%s] Logout timed out, terminating", s.cfg.MailboxID)
		c.Terminate()
	}
}
