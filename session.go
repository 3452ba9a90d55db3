package pop3sf

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vitlabuda/pop3sf/internal/logging"
)

type sessionState int

const (
	authorizationState sessionState = iota
	transactionState
)

// SessionParams bundles everything a [Session] needs beyond the socket
// itself: the shared registries a [Server] constructs once, this
// connection's identity, and its configuration. Passed by reference per the
// design notes' "construction is explicit ... and passed by reference".
type SessionParams struct {
	MboxProvider MailboxProvider
	Authorizer   Authorizer
	LockRegistry *LockRegistry
	Throttle     *AuthThrottle
	Logger       *logging.Logger
	Metrics      *Metrics
	Draining     *atomic.Bool

	RemoteAddr string

	IdleTimeout                  time.Duration
	AllowReadOnlyMode            bool
	AllowPlaintextAuthWithoutTLS bool
	OfferUTF8                    bool
	MaxInvalidCommands           int // <0 disables the guard

	// STLSConfig, if non-nil, makes STLS available on this connection
	// (i.e. it was accepted on a cleartext, STLS-capable listener).
	STLSConfig *tls.Config
	// IsTLS is true if the connection already negotiated TLS before the
	// session was constructed (an implicit-TLS listener).
	IsTLS bool
}

// Session represents one POP3 session (C6). It is used internally by
// [Server], but can be driven directly for embedding or testing.
type Session struct {
	id        string
	ctx       context.Context
	cancelCtx context.CancelFunc

	conn Conn
	r    *bufio.Reader

	authorizer   Authorizer
	mboxProvider MailboxProvider
	lockRegistry *LockRegistry
	throttle     *AuthThrottle
	logger       *logging.Logger
	metrics      *Metrics
	draining     *atomic.Bool

	remoteAddr                   string
	idleTimeout                  time.Duration
	allowReadOnlyMode            bool
	allowPlaintextAuthWithoutTLS bool
	maxInvalidCommands           int
	invalidCmdCount              int

	stlsConfig  *tls.Config
	isTLS       bool
	utf8Offered bool
	utf8        bool

	apopDisabled     bool
	userPassDisabled bool
	timestampBanner  string

	state    sessionState
	readOnly bool
	user     string
	mailbox  Mailbox
	views    []messageView
	toDelete map[int]struct{}

	releaseLock func()
}

// NewSession constructs a session bound to conn and writes its greeting
// banner. Use [Server] to drive sessions from accepted connections; this
// constructor is exported for embedding and for tests that exercise the
// state machine directly over a mock [Conn].
func NewSession(conn Conn, params SessionParams) (*Session, error) {
	logger := params.Logger
	if logger == nil {
		logger = logging.Default()
	}

	id := uuid.NewString()
	logger = logger.With("session_id", id, "remote_addr", params.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:                           id,
		ctx:                          ctx,
		cancelCtx:                    cancel,
		conn:                         conn,
		r:                            bufio.NewReader(conn),
		authorizer:                   params.Authorizer,
		mboxProvider:                 params.MboxProvider,
		lockRegistry:                 params.LockRegistry,
		throttle:                     params.Throttle,
		logger:                       logger,
		metrics:                      params.Metrics,
		draining:                     params.Draining,
		remoteAddr:                   params.RemoteAddr,
		idleTimeout:                  params.IdleTimeout,
		allowReadOnlyMode:            params.AllowReadOnlyMode,
		allowPlaintextAuthWithoutTLS: params.AllowPlaintextAuthWithoutTLS,
		maxInvalidCommands:           params.MaxInvalidCommands,
		stlsConfig:                   params.STLSConfig,
		isTLS:                        params.IsTLS,
		utf8Offered:                  params.OfferUTF8,
		state:                        authorizationState,
		toDelete:                     make(map[int]struct{}),
	}

	// Probe optional adapter capabilities once, per §4.3.
	if params.Authorizer != nil {
		if err := params.Authorizer.Apop("", "", ""); errors.Is(err, ErrNotSupportedAuthMethod) {
			s.apopDisabled = true
		}
		if err := params.Authorizer.UserPass("", ""); errors.Is(err, ErrNotSupportedAuthMethod) {
			s.userPassDisabled = true
		}
	}

	if !s.apopDisabled {
		s.timestampBanner = generateTimestampBanner()
	}

	greeting := "+OK POP3SF ready"
	if s.timestampBanner != "" {
		greeting += " " + s.timestampBanner
	}
	if err := s.writeLine(greeting + "\r\n"); err != nil {
		return nil, err
	}

	return s, nil
}

func generateTimestampBanner() string {
	hostName, err := os.Hostname()
	if err != nil {
		hostName = "localhost"
	}
	return fmt.Sprintf("<%d.%d@%s>", os.Getpid(), time.Now().UnixMicro(), hostName)
}

func (s *Session) readCommand() (command, error) {
	line, err := readCommandLine(s.r)
	if err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			return command{}, pe
		}
		return command{}, err
	}
	if !s.utf8 && !isASCII(line) {
		return command{}, errSyntax("non-ASCII characters are not allowed before UTF8")
	}
	var cmd command
	cmd.parse(line)
	return cmd, nil
}

// isASCII reports whether every byte of s is 7-bit clean. Command arguments
// are restricted to ASCII until the client issues UTF8 (§4.6, RFC 6856).
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// closeConn cancels the session's context and closes the underlying
// connection. It is the single place Serve and its handlers close the
// socket from, so an in-flight auth-throttle wait is unblocked the moment
// the connection goes away rather than only at the next command boundary.
func (s *Session) closeConn() error {
	s.cancelCtx()
	return s.conn.Close()
}

// Serve is the session's main loop: it reads commands and writes responses
// until the connection ends or an unrecoverable error occurs. A syntax error
// while reading a command line (an over-long line, or non-ASCII bytes before
// UTF8) is reported as -ERR and the connection is closed. Errors from
// handling a parsed command are reported as -ERR and the loop continues;
// only a transport error or a terminal [ProtocolError]
// (closeAfterReply/silent) ends it.
func (s *Session) Serve() error {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}
	defer s.cancelCtx()
	defer s.releaseResources(false)

	for {
		if s.draining != nil && s.draining.Load() {
			_ = s.replyErr(errShuttingDown())
			return nil
		}

		cmd, err := timeoutCall(s.readCommand, s.idleTimeout)
		if err != nil {
			var pe *ProtocolError
			if errors.As(err, &pe) {
				if pe.Kind == KindProtocolSyntax {
					_ = s.writeLine(pe.WireLine() + "\r\n")
					return s.closeConn()
				}
				return err
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return s.replyErr(errIdleTimeout())
			}
			return err
		}

		if s.metrics != nil {
			s.metrics.CommandsTotal.WithLabelValues(cmd.name).Inc()
		}

		if cmd.name == "" {
			if err := s.replyErr(errSyntax("empty command")); err != nil {
				return err
			}
			if s.bumpInvalidCommand() {
				return s.closeConn()
			}
			continue
		}

		if !cmd.isValidInState(s.state) {
			if err := s.replyErr(errWrongState()); err != nil {
				return err
			}
			if s.bumpInvalidCommand() {
				return s.closeConn()
			}
			continue
		}

		var handlerErr error
		switch s.state {
		case authorizationState:
			handlerErr = s.handleAuthorizationState(cmd)
		case transactionState:
			handlerErr = s.handleTransactionState(cmd)
		}

		if handlerErr != nil {
			if errors.Is(handlerErr, errSessionClosed) {
				return nil
			}
			return handlerErr
		}
	}
}

// errSessionClosed is a sentinel used internally to unwind Serve's loop
// after QUIT, without treating a clean close as a transport error.
var errSessionClosed = errors.New("session closed")

// bumpInvalidCommand increments the invalid-command counter and reports
// whether the session must now be closed (supplemented feature, grounded on
// original_source/ClientCommandHandler.py's MAX_INVALID_COMMANDS_PER_SESSION
// guard).
func (s *Session) bumpInvalidCommand() bool {
	if s.maxInvalidCommands < 0 {
		return false
	}
	s.invalidCmdCount++
	return s.invalidCmdCount > s.maxInvalidCommands
}

func (s *Session) handleAuthorizationState(cmd command) error {
	switch cmd.name {
	case userCmd:
		if s.userPassDisabled {
			return s.replyErr(errSyntax("USER not supported"))
		}
		if !s.plaintextAuthAllowed() {
			return s.replyErr(errSyntax("plaintext authentication requires STLS first"))
		}
		if len(cmd.args) == 0 {
			return s.replyErr(errSyntax("USER requires a username"))
		}
		if s.user != "" {
			return s.replyErr(newProtoErr(KindProtocolSyntax, "", ErrUserAlreadySpecified.Error()))
		}
		s.user = cmd.args[0]
		return s.replyOK("send PASS")

	case passCmd:
		if !s.plaintextAuthAllowed() {
			return s.replyErr(errSyntax("plaintext authentication requires STLS first"))
		}
		if s.user == "" {
			return s.replyErr(newProtoErr(KindProtocolSyntax, "", ErrUserNotSpecified.Error()))
		}
		password := strings.Join(cmd.args, " ")
		return s.attemptLogin(s.user, password)

	case apopCmd:
		if s.apopDisabled {
			return s.replyErr(errSyntax("APOP not supported"))
		}
		if len(cmd.args) != 2 {
			return s.replyErr(errSyntax("invalid arguments"))
		}
		return s.attemptApopLogin(cmd.args[0], cmd.args[1])

	case authCmd:
		return s.handleAuth(cmd)

	case stlsCmd:
		return s.handleSTLS(cmd)

	case utf8Cmd:
		if len(cmd.args) != 0 {
			return s.replyErr(errSyntax("invalid arguments"))
		}
		s.utf8 = true
		return s.replyOK("UTF-8 enabled for this connection")

	case langCmd:
		return s.handleLang(cmd)

	case xproCmd:
		return s.handleXPRO(cmd)

	case capaCmd:
		return s.handleCAPA()

	case quitCmd:
		_ = s.writeLine("+OK POP3SF server signing off\r\n")
		_ = s.closeConn()
		return errSessionClosed
	}

	return s.replyErr(errSyntax("invalid command"))
}

func (s *Session) handleAuth(cmd command) error {
	if len(cmd.args) == 0 {
		return s.replyErr(errSyntax("AUTH requires a mechanism"))
	}
	mechanism := strings.ToUpper(cmd.args[0])
	if mechanism != "PLAIN" || s.userPassDisabled {
		return s.replyErr(newProtoErr(KindProtocolSyntax, "", "unsupported SASL mechanism"))
	}
	if !s.plaintextAuthAllowed() {
		return s.replyErr(errSyntax("plaintext authentication requires STLS first"))
	}

	var loggedInUser string
	server := newPlainSASLServer(s.authorizer, func(identity, username string) {
		loggedInUser = username
	})

	var initial []byte
	if len(cmd.args) >= 2 {
		decoded, err := decodeSASLInitialResponse(cmd.args[1])
		if err != nil {
			return s.replyErr(errSyntax("invalid SASL response"))
		}
		initial = decoded
	} else {
		if err := s.writeLine("+ \r\n"); err != nil {
			return err
		}
		readRaw := func() (string, error) { return readCommandLine(s.r) }
		line, err := timeoutCall(readRaw, s.idleTimeout)
		if err != nil {
			return err
		}
		decoded, derr := decodeSASLInitialResponse(line)
		if derr != nil {
			return s.replyErr(errSyntax("invalid SASL response"))
		}
		initial = decoded
	}

	if err := s.throttle.Wait(s.ctx, s.remoteIP()); err != nil {
		return s.closeConn()
	}

	_, _, err := server.Next(initial)
	if err != nil {
		s.throttle.RecordFailure(s.remoteIP())
		if s.metrics != nil {
			s.metrics.AuthFailuresTotal.Inc()
		}
		return s.replyErr(errAuthFail())
	}

	s.throttle.RecordSuccess(s.remoteIP())
	if s.metrics != nil {
		s.metrics.AuthSuccessesTotal.Inc()
	}
	return s.completeLogin(loggedInUser)
}

// plaintextAuthAllowed reports whether USER/PASS/AUTH PLAIN may proceed on
// this connection: either it is already TLS-protected (implicit or
// post-STLS), or the server was explicitly configured
// (AllowPlaintextAuthWithoutTLS) to allow plaintext credentials.
func (s *Session) plaintextAuthAllowed() bool {
	return s.isTLS || s.allowPlaintextAuthWithoutTLS
}

func (s *Session) remoteIP() string {
	if host, _, err := net.SplitHostPort(s.remoteAddr); err == nil {
		return host
	}
	return s.remoteAddr
}

func (s *Session) attemptLogin(user, password string) error {
	if err := s.throttle.Wait(s.ctx, s.remoteIP()); err != nil {
		return s.closeConn()
	}

	if err := s.authorizer.UserPass(user, password); err != nil {
		s.throttle.RecordFailure(s.remoteIP())
		if s.metrics != nil {
			s.metrics.AuthFailuresTotal.Inc()
		}
		return s.replyErr(errAuthFail())
	}

	s.throttle.RecordSuccess(s.remoteIP())
	if s.metrics != nil {
		s.metrics.AuthSuccessesTotal.Inc()
	}
	return s.completeLogin(user)
}

func (s *Session) attemptApopLogin(user, digest string) error {
	if err := s.throttle.Wait(s.ctx, s.remoteIP()); err != nil {
		return s.closeConn()
	}

	if err := s.authorizer.Apop(user, s.timestampBanner, digest); err != nil {
		s.throttle.RecordFailure(s.remoteIP())
		if s.metrics != nil {
			s.metrics.AuthFailuresTotal.Inc()
		}
		return s.replyErr(errAuthFail())
	}

	s.throttle.RecordSuccess(s.remoteIP())
	if s.metrics != nil {
		s.metrics.AuthSuccessesTotal.Inc()
	}
	return s.completeLogin(user)
}

// completeLogin acquires the mailbox lock in the mode the session
// negotiated (XPRO beforehand selects read-only), opens the mailbox, builds
// the message view snapshot, and transitions to TRANSACTION. Per §4.6, if
// either step fails the session stays in AUTHORIZATION; only auth failure
// (handled by the caller) advances the throttle, lock failure does not.
func (s *Session) completeLogin(user string) error {
	mode := LockExclusive
	if s.readOnly {
		mode = LockReadOnly
	}

	if s.readOnly && !s.allowReadOnlyMode {
		return s.replyErr(errReadOnly("read-only mailbox access is not allowed"))
	}

	release, ok := s.lockRegistry.Acquire(user, s.id, mode)
	if !ok {
		if s.metrics != nil {
			s.metrics.LockContentionsTotal.Inc()
		}
		return s.replyErr(errLockBusy())
	}

	mailbox, err := s.mboxProvider.Provide(user, s.readOnly)
	if err != nil {
		release()
		return s.replyErr(errAdapterTransient(err))
	}

	views, err := buildMessageViews(mailbox)
	if err != nil {
		release()
		_ = mailbox.Close()
		return s.replyErr(errAdapterTransient(err))
	}

	s.user = user
	s.mailbox = mailbox
	s.views = views
	s.releaseLock = release
	s.state = transactionState

	response := "user successfully logged in"
	if s.readOnly {
		response += " (read-only)"
	}
	return s.replyOK(response)
}

func buildMessageViews(mailbox Mailbox) ([]messageView, error) {
	sizes, err := mailbox.List()
	if err != nil {
		return nil, err
	}
	uids, err := mailbox.Uidl()
	if err != nil {
		return nil, err
	}

	views := make([]messageView, len(sizes))
	for i, size := range sizes {
		var uid string
		if i < len(uids) {
			uid = uids[i]
		}
		views[i] = messageView{size: size, uid: uid}
	}
	return views, nil
}

func (s *Session) handleSTLS(cmd command) error {
	if s.stlsConfig == nil || s.isTLS {
		return s.replyErr(errSyntax("STLS not available"))
	}
	if len(cmd.args) != 0 {
		return s.replyErr(errSyntax("invalid arguments"))
	}

	if err := s.replyOK("begin TLS negotiation"); err != nil {
		return err
	}

	if err := s.upgradeToTLS(s.stlsConfig); err != nil {
		_ = s.closeConn()
		return err
	}
	return nil
}

func (s *Session) handleLang(cmd command) error {
	if len(cmd.args) == 0 {
		return s.replyMultiline("listing all languages", []string{"en English"})
	}
	if len(cmd.args) != 1 {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	if cmd.args[0] == "*" || strings.EqualFold(cmd.args[0], "en") {
		return s.replyOK("response language set to English")
	}
	return s.replyErr(errSyntax("invalid language tag"))
}

func (s *Session) handleXPRO(cmd command) error {
	if len(cmd.args) != 0 {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	if !s.allowReadOnlyMode {
		return s.replyErr(errReadOnly("read-only mailbox access mode is not allowed"))
	}
	s.readOnly = true
	return s.replyOK("mailbox access mode switched to read-only")
}

func (s *Session) handleCAPA() error {
	return s.replyMultiline("capability list follows", s.capabilities())
}

func (s *Session) handleTransactionState(cmd command) error {
	switch cmd.name {
	case statCmd:
		return s.replyOK(fmt.Sprintf("%d %d", countNonDeleted(s.views), totalSizeNonDeleted(s.views)))

	case listCmd:
		return s.handleList(cmd)

	case uidlCmd:
		return s.handleUidl(cmd)

	case retrCmd:
		return s.handleRetr(cmd)

	case topCmd:
		return s.handleTop(cmd)

	case deleCmd:
		return s.handleDele(cmd)

	case rsetCmd:
		return s.handleRset()

	case noopCmd:
		return s.replyOK("nothing happened")

	case capaCmd:
		return s.handleCAPA()

	case langCmd:
		return s.handleLang(cmd)

	case quitCmd:
		return s.quitFromTransaction()
	}

	return s.replyErr(errSyntax("invalid command"))
}

func (s *Session) handleList(cmd command) error {
	if len(cmd.args) == 0 {
		return s.replyMultiline(fmt.Sprintf("%d messages in mailbox", countNonDeleted(s.views)), buildListLines(s.views))
	}
	if !cmd.oneNumArg() {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	idx, perr := resolveMessageNumber(s.views, cmd.numArgs[0]+1)
	if perr != nil {
		return s.replyErr(perr)
	}
	return s.replyOK(fmt.Sprintf("%d %d", idx+1, s.views[idx].size))
}

func (s *Session) handleUidl(cmd command) error {
	if len(cmd.args) == 0 {
		return s.replyMultiline(fmt.Sprintf("%d messages in mailbox", countNonDeleted(s.views)), buildUidlLines(s.views))
	}
	if !cmd.oneNumArg() {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	idx, perr := resolveMessageNumber(s.views, cmd.numArgs[0]+1)
	if perr != nil {
		return s.replyErr(perr)
	}
	return s.replyOK(fmt.Sprintf("%d %s", idx+1, s.views[idx].uid))
}

func (s *Session) handleRetr(cmd command) error {
	if !cmd.oneNumArg() {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	idx, perr := resolveMessageNumber(s.views, cmd.numArgs[0]+1)
	if perr != nil {
		return s.replyErr(perr)
	}

	r, err := s.mailbox.Message(idx)
	if err != nil {
		return s.replyErr(errAdapterTransient(err))
	}
	if err := s.replyOK(fmt.Sprintf("%d octets", s.views[idx].size)); err != nil {
		return err
	}

	dw := newDotWriter(s.conn)
	_, copyErr := io.Copy(dw, r)
	closeErr := r.Close()
	dwCloseErr := dw.Close()
	return errors.Join(copyErr, closeErr, dwCloseErr)
}

func (s *Session) handleTop(cmd command) error {
	if len(cmd.args) != 2 || cmd.numArgs[0] < 0 {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	idx, perr := resolveMessageNumber(s.views, cmd.numArgs[0]+1)
	if perr != nil {
		return s.replyErr(perr)
	}

	// TOP's line count is zero-allowed, unlike the 1-based message numbers
	// command.numArgs is built for, so it is parsed directly here rather
	// than through cmd.numArgs[1].
	nLines, err := strconv.Atoi(cmd.args[1])
	if err != nil || nLines < 0 || cmd.args[1][0] == '+' || cmd.args[1][0] == '-' {
		return s.replyErr(errSyntax("invalid arguments"))
	}

	r, err := s.mailbox.Message(idx)
	if err != nil {
		return s.replyErr(errAdapterTransient(err))
	}
	if err := s.replyOK("top of message follows"); err != nil {
		return err
	}

	dw := newDotWriter(s.conn)
	copyErr := copyHeadersAndBody(dw, r, nLines)
	closeErr := r.Close()
	dwCloseErr := dw.Close()
	return errors.Join(copyErr, closeErr, dwCloseErr)
}

func (s *Session) handleDele(cmd command) error {
	if !cmd.oneNumArg() {
		return s.replyErr(errSyntax("invalid arguments"))
	}
	idx, perr := resolveMessageNumber(s.views, cmd.numArgs[0]+1)
	if perr != nil {
		return s.replyErr(perr)
	}
	if s.readOnly {
		return s.replyErr(errReadOnly("DELE not allowed in read-only mode"))
	}
	s.views[idx].deleted = true
	s.toDelete[idx] = struct{}{}
	return s.replyOK("message deleted")
}

func (s *Session) handleRset() error {
	if s.readOnly {
		return s.replyErr(errReadOnly("RSET not allowed in read-only mode"))
	}
	for idx := range s.toDelete {
		s.views[idx].deleted = false
	}
	clear(s.toDelete)
	return s.replyOK("maildrop has been reset")
}

// quitFromTransaction is the TRANSACTION -> UPDATE -> CLOSED path:
// commit_deletions is invoked, then the lock is released and the connection
// closed regardless of commit outcome (§4.6, invariant 4).
func (s *Session) quitFromTransaction() error {
	var commitErr error
	for idx := range s.toDelete {
		if err := s.mailbox.Dele(idx); err != nil {
			commitErr = err
			break
		}
	}

	s.releaseResources(commitErr == nil)

	if commitErr != nil {
		_ = s.writeLine(errAdapterPermanent(commitErr).WireLine() + "\r\n")
		_ = s.closeConn()
		return errSessionClosed
	}

	_ = s.writeLine("+OK POP3SF server signing off, maildrop updated\r\n")
	_ = s.closeConn()
	return errSessionClosed
}

// releaseResources closes the mailbox handle (Abandon if the mailbox
// implements it and committed is false) and releases the mailbox lock. It
// is safe to call multiple times and is the single place every termination
// path funnels through, so the lock is released and the handle closed on
// every exit (invariant 7).
func (s *Session) releaseResources(committed bool) {
	if s.mailbox != nil {
		if !committed {
			if abandoner, ok := s.mailbox.(Abandoner); ok {
				_ = abandoner.Abandon()
			} else {
				_ = s.mailbox.Close()
			}
		} else {
			_ = s.mailbox.Close()
		}
		s.mailbox = nil
	}
	if s.releaseLock != nil {
		s.releaseLock()
		s.releaseLock = nil
	}
}

func (s *Session) writeLine(line string) error {
	_, err := s.conn.Write([]byte(line))
	return err
}

func (s *Session) replyOK(text string) error {
	s.logger.Debug("reply", "status", "ok")
	return s.writeLine(fmt.Sprintf("+OK %s\r\n", text))
}

func (s *Session) replyErr(err *ProtocolError) error {
	s.logger.Debug("reply", "status", "err", "kind", int(err.Kind))
	if err.Silent {
		return s.closeConn()
	}
	werr := s.writeLine(err.WireLine() + "\r\n")
	if err.CloseAfterReply {
		_ = s.closeConn()
	}
	return werr
}

func (s *Session) replyMultiline(okText string, lines []string) error {
	if err := s.replyOK(okText); err != nil {
		return err
	}
	dw := newDotWriter(s.conn)
	for _, line := range lines {
		if _, err := dw.Write([]byte(line + "\r\n")); err != nil {
			return err
		}
	}
	return dw.Close()
}

// timeoutCall runs fn with a bound on how long it may take to return,
// honoring a non-positive timeout as "no limit". Grounded on
// pkierski-pop3srv/session.go's generic helper of the same name and shape.
func timeoutCall[T any](fn func() (T, error), timeout time.Duration) (v T, err error) {
	if timeout <= 0 {
		return fn()
	}

	callDone := make(chan struct{})
	go func() {
		defer close(callDone)
		v, err = fn()
	}()

	select {
	case <-time.After(timeout):
		err = context.DeadlineExceeded
		return
	case <-callDone:
		return
	}
}

func decodeSASLInitialResponse(s string) ([]byte, error) {
	if s == "=" {
		return []byte{}, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
