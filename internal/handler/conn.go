package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"ircgateway/internal/domain"
	"ircgateway/internal/service"
	"ircgateway/internal/session"

	"go.uber.org/zap"
)

const (
	maxLineLength = 4096
	lineBacklog   = 64
)

// Controller authenticates connections and starts interactive setup
type Controller interface {
	Authenticate(ctx context.Context, n service.Notifier, identity domain.Identity) domain.AuthenticateResult
	AttachSetupSession(ctx context.Context, conn service.SetupConn) (*service.SetupSession, error)
}

// Sessions hands out long-lived account sessions
type Sessions interface {
	GetOrCreate(accountKey string, user *domain.RemoteUser, identity *domain.OAuthIdentity, n session.Notifier) *session.AccountSession
	Release(s *session.AccountSession, n session.Notifier)
}

// Options configure every connection of a server
type Options struct {
	ServerName  string
	RejectDelay time.Duration
	Created     time.Time
}

// Conn is one client connection, from registration until disconnect
type Conn struct {
	netConn    net.Conn
	controller Controller
	sessions   Sessions
	opts       Options
	logger     *zap.Logger

	writeMu sync.Mutex
	writer  *bufio.Writer

	nickMu sync.RWMutex
	nick   string

	// registration state, owned by Run
	user      string
	realName  string
	password  string
	attempted bool

	setup   *service.SetupSession
	account *session.AccountSession

	// closed by the reader on EOF or read error
	gone chan struct{}
}

// NewConn wraps an accepted connection
func NewConn(netConn net.Conn, controller Controller, sessions Sessions, opts Options, logger *zap.Logger) *Conn {
	return &Conn{
		netConn:    netConn,
		controller: controller,
		sessions:   sessions,
		opts:       opts,
		logger:     logger.With(zap.String("remote", netConn.RemoteAddr().String())),
		writer:     bufio.NewWriter(netConn),
		gone:       make(chan struct{}),
	}
}

// Run reads lines until the client quits, is rejected or ctx ends
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.close()

	go func() {
		<-ctx.Done()
		c.netConn.Close()
	}()

	lines := make(chan string, lineBacklog)
	readErr := make(chan error, 1)
	go c.read(ctx, lines, readErr)

	for line := range lines {
		msg, err := ParseMessage(line)
		if err != nil {
			continue
		}
		if done := c.handle(ctx, msg); done {
			return nil
		}
	}

	if err := <-readErr; err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to read: %w", err)
	}
	return nil
}

// read feeds lines to Run so a disconnect is noticed while a message is
// still being handled
func (c *Conn) read(ctx context.Context, lines chan<- string, errc chan<- error) {
	defer close(lines)
	defer close(c.gone)

	scanner := bufio.NewScanner(c.netConn)
	scanner.Buffer(make([]byte, 512), maxLineLength)

	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
	errc <- scanner.Err()
}

// disconnected reports whether the client side has gone away
func (c *Conn) disconnected() bool {
	select {
	case <-c.gone:
		return true
	default:
		return false
	}
}

// handle dispatches one message and reports whether the connection is done
func (c *Conn) handle(ctx context.Context, msg Message) bool {
	switch msg.Command {
	case cmdPass:
		if !c.attempted {
			c.password = msg.Param(0)
		}
	case cmdNick:
		if nick := msg.Param(0); nick != "" {
			c.nickMu.Lock()
			c.nick = nick
			c.nickMu.Unlock()
		}
		if !c.attempted {
			return c.tryAuthenticate(ctx)
		}
	case cmdUser:
		if !c.attempted {
			c.user = msg.Param(0)
			c.realName = msg.Param(3)
			return c.tryAuthenticate(ctx)
		}
	case cmdPing:
		c.send(Message{Prefix: c.opts.ServerName, Command: cmdPong, Params: []string{c.opts.ServerName, msg.Param(0)}})
	case cmdPrivmsg, cmdNotice:
		if c.setup != nil {
			c.setup.HandleLine(ctx, msg.Param(1))
		}
	case cmdQuit:
		return true
	default:
		c.logger.Debug("Ignoring command", zap.String("command", msg.Command))
	}
	return false
}

// tryAuthenticate starts the single attempt once both NICK and USER arrived
func (c *Conn) tryAuthenticate(ctx context.Context) bool {
	nick := c.target()
	if nick == "*" || c.user == "" {
		return false
	}
	c.attempted = true

	identity := domain.Identity{
		Nick:           nick,
		AccountName:    c.user,
		Password:       c.password,
		RemoteEndpoint: c.netConn.RemoteAddr().String(),
	}
	c.password = ""

	result := c.controller.Authenticate(ctx, c, identity)
	if c.disconnected() {
		c.logger.Info("Client left during authentication", zap.String("result", result.Kind.String()))
		return true
	}

	switch result.Kind {
	case domain.ResultSuccess:
		c.sendWelcome()
		if c.sessions != nil {
			c.account = c.sessions.GetOrCreate(identity.AccountName, result.User, result.Identity, c)
		}
	case domain.ResultContinueSetup:
		c.sendWelcome()
		setup, err := c.controller.AttachSetupSession(ctx, c)
		if err != nil {
			c.logger.Warn("Setup session failed to start", zap.Error(err))
		}
		c.setup = setup
	default:
		c.reject(ctx, result)
		return true
	}
	return false
}

func (c *Conn) reject(ctx context.Context, result domain.AuthenticateResult) {
	c.send(Message{
		Prefix:  c.opts.ServerName,
		Command: string(result.ErrorCode),
		Params:   []string{c.target(), result.Message},
		Trailing: true,
	})

	timer := time.NewTimer(c.opts.RejectDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Conn) sendWelcome() {
	host := fmt.Sprintf("%s!%s@%s", c.target(), c.user, hostOf(c.netConn.RemoteAddr()))
	c.numeric(rplWelcome, "Welcome to the Internet Relay Network "+host)
	c.numeric(rplYourHost, fmt.Sprintf("Your host is %s, running version ircgateway", c.opts.ServerName))
	c.numeric(rplCreated, "This server was created "+c.opts.Created.Format(time.RFC1123))
	c.send(Message{
		Prefix:  c.opts.ServerName,
		Command: rplMyInfo,
		Params:  []string{c.target(), c.opts.ServerName, "ircgateway", "i", "o"},
	})
}

func (c *Conn) numeric(code, text string) {
	c.send(Message{Prefix: c.opts.ServerName, Command: code, Params: []string{c.target(), text}, Trailing: true})
}

func (c *Conn) target() string {
	c.nickMu.RLock()
	defer c.nickMu.RUnlock()
	if c.nick == "" {
		return "*"
	}
	return c.nick
}

// SendNotice sends a server notice to the client
func (c *Conn) SendNotice(text string) {
	c.send(Message{Prefix: c.opts.ServerName, Command: cmdNotice, Params: []string{c.target(), cleanText(text)}, Trailing: true})
}

// SendMessage sends a private message from a gateway pseudo-user
func (c *Conn) SendMessage(from, text string) {
	c.send(Message{
		Prefix:  from + "!gateway@" + c.opts.ServerName,
		Command: cmdPrivmsg,
		Params:   []string{c.target(), cleanText(text)},
		Trailing: true,
	})
}

func (c *Conn) send(m Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.writer.WriteString(m.String() + "\r\n"); err != nil {
		c.logger.Debug("Failed to write", zap.Error(err))
		return
	}
	if err := c.writer.Flush(); err != nil {
		c.logger.Debug("Failed to flush", zap.Error(err))
	}
}

func (c *Conn) close() {
	if c.setup != nil {
		c.setup.Close()
		c.setup = nil
	}
	if c.account != nil && c.sessions != nil {
		c.sessions.Release(c.account, c)
		c.account = nil
	}
	c.netConn.Close()
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
