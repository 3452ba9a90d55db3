package pop3sf

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitlabuda/pop3sf/internal/logging"
)

const DefaultConnectionsLimit = 100

// TLSMode selects how a listener negotiates TLS (§4.7, §6).
type TLSMode int

const (
	// TLSModeNone is a plaintext listener with no STLS offered.
	TLSModeNone TLSMode = iota
	// TLSModeImplicit performs the TLS handshake before any POP3 byte is
	// exchanged (the "pop3s" convention).
	TLSModeImplicit
	// TLSModeSTLS is a cleartext listener that advertises STLS and allows
	// an in-band upgrade.
	TLSModeSTLS
)

// ListenerSpec describes one bind point a [Server] accepts connections on.
type ListenerSpec struct {
	Addr      string
	TLSMode   TLSMode
	TLSConfig *tls.Config // required when TLSMode != TLSModeNone
}

// Server is a POP3 server instance (C8/C9): it accepts connections across
// one or more listeners, constructs a [Session] per connection wired to the
// shared [LockRegistry], [AuthThrottle] and [Metrics], and coordinates
// graceful shutdown.
//
// Grounded on pkierski-pop3srv/server.go's Server/NewServer/Serve/Shutdown
// shape (onceCloseListener, sessions set, draining flag, forced close on
// deadline), generalized to multiple listeners with
// golang.org/x/sync/errgroup driving the listener set instead of a single
// Serve call per process.
type Server struct {
	// ConnectionsLimit caps concurrent sessions across all listeners.
	ConnectionsLimit int

	// IdleTimeout bounds how long a session may go without a full command
	// line before it is dropped (§4.9). Zero means no limit.
	IdleTimeout time.Duration

	AllowReadOnlyMode            bool
	AllowPlaintextAuthWithoutTLS bool
	OfferUTF8                    bool

	// MaxInvalidCommands caps how many commands a session may send that are
	// rejected as empty or not valid in the current state; the counter is
	// not reset, and the session is dropped once it exceeds the cap. A
	// negative value disables the guard.
	MaxInvalidCommands int

	Logger  *logging.Logger
	Metrics *Metrics

	authorizer   Authorizer
	mboxProvider MailboxProvider
	lockRegistry *LockRegistry
	throttle     *AuthThrottle

	draining          atomic.Bool
	listeners         map[*net.Listener]struct{}
	listenersMu       sync.Mutex
	listenersGroup    sync.WaitGroup
	sessions          map[*Session]struct{}
	sessionsMu        sync.Mutex
	sessionsDone      chan struct{}
	sessionsDoneClose sync.Once
}

var (
	ErrServerClosed       = errors.New("pop3sf: server closed")
	ErrTooManyConnections = errors.New("pop3sf: too many connections")
)

// NewServer constructs a Server ready to Serve. authDelayCurve is passed to
// a fresh [AuthThrottle]; pass [DefaultAuthDelayCurve] for the documented
// default.
func NewServer(authorizer Authorizer, mboxProvider MailboxProvider, authDelayCurve []time.Duration) *Server {
	return &Server{
		ConnectionsLimit:   DefaultConnectionsLimit,
		OfferUTF8:          true,
		MaxInvalidCommands: -1,
		Logger:             logging.Default(),
		authorizer:         authorizer,
		mboxProvider:       mboxProvider,
		lockRegistry:       NewLockRegistry(),
		throttle:           NewAuthThrottle(authDelayCurve),
		listeners:          make(map[*net.Listener]struct{}),
		sessions:           make(map[*Session]struct{}),
		sessionsDone:       make(chan struct{}),
	}
}

// Serve accepts incoming connections on l, driving each one through a
// [Session] constructed per spec's TLS mode. Serve always returns a
// non-nil error and closes l; after [Server.Shutdown] or [Server.Close],
// the returned error is [ErrServerClosed].
func (s *Server) Serve(l net.Listener, spec ListenerSpec) error {
	l = &onceCloseListener{Listener: l}
	defer l.Close()

	if !s.addListener(&l) {
		return ErrServerClosed
	}
	defer s.removeListener(&l)

	for {
		conn, err := l.Accept()
		if s.shuttingDown() {
			return ErrServerClosed
		}
		if err != nil {
			return err
		}

		s.Logger.Info("connection accepted", "remote_addr", conn.RemoteAddr().String(), "listener", spec.Addr)
		go s.handleConn(conn, spec)
	}
}

func (s *Server) handleConn(conn net.Conn, spec ListenerSpec) {
	params := SessionParams{
		MboxProvider:                 s.mboxProvider,
		Authorizer:                   s.authorizer,
		LockRegistry:                 s.lockRegistry,
		Throttle:                     s.throttle,
		Logger:                       s.Logger,
		Metrics:                      s.Metrics,
		Draining:                     &s.draining,
		RemoteAddr:                   conn.RemoteAddr().String(),
		IdleTimeout:                  s.IdleTimeout,
		AllowReadOnlyMode:            s.AllowReadOnlyMode,
		AllowPlaintextAuthWithoutTLS: s.AllowPlaintextAuthWithoutTLS,
		OfferUTF8:                    s.OfferUTF8,
		MaxInvalidCommands:           s.MaxInvalidCommands,
		IsTLS:                        spec.TLSMode == TLSModeImplicit,
	}
	if spec.TLSMode == TLSModeSTLS {
		params.STLSConfig = spec.TLSConfig
	}

	var transport Conn = conn
	if spec.TLSMode == TLSModeImplicit {
		tlsConn := tls.Server(conn, spec.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			s.Logger.Warn("TLS handshake failed", "remote_addr", params.RemoteAddr, "error", err)
			_ = conn.Close()
			return
		}
		transport = tlsConn
	}

	session, err := NewSession(transport, params)
	if err != nil {
		_ = conn.Close()
		return
	}

	if !s.addSession(session) {
		if s.Metrics != nil {
			s.Metrics.OverloadRejectionsTotal.Inc()
		}
		s.Logger.Warn("connection rejected", "remote_addr", params.RemoteAddr, "error", ErrTooManyConnections)
		_ = session.replyErr(errOverload())
		_ = conn.Close()
		return
	}

	defer func() {
		_ = conn.Close()
		s.deleteSession(session)
		if s.draining.Load() && !s.hasActiveSessions() {
			s.closeSessionsDoneOnce()
		}
		s.Logger.Info("connection closed", "remote_addr", params.RemoteAddr)
	}()

	if err := session.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.Logger.Debug("session ended", "remote_addr", params.RemoteAddr, "error", err)
	}
}

// ServeAll runs Serve concurrently for every listener/spec pair using
// errgroup.Group and returns the first error. Serve does not watch ctx: a
// cancelled ctx or one listener's fatal error does not close the other
// listeners, which keep accepting until [Server.Shutdown] or [Server.Close]
// closes them. ServeAll blocks until every listener has returned.
func (s *Server) ServeAll(ctx context.Context, listeners []net.Listener, specs []ListenerSpec) error {
	if len(listeners) != len(specs) {
		return errors.New("pop3sf: listeners and specs must have the same length")
	}

	group, gctx := errgroup.WithContext(ctx)
	for i := range listeners {
		l, spec := listeners[i], specs[i]
		group.Go(func() error {
			return s.Serve(l, spec)
		})
	}

	group.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := group.Wait()
	if errors.Is(err, ErrServerClosed) {
		return ErrServerClosed
	}
	return err
}

// Shutdown gracefully shuts down the server: it stops accepting new
// connections, lets in-flight sessions drain on their own (each checks the
// draining flag at its next command boundary, per §4.9), and force-closes
// anything still open once ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.draining.CompareAndSwap(false, true) {
		return ErrServerClosed
	}
	s.cancelSessionContexts()

	s.listenersMu.Lock()
	lnerr := s.closeListenersLocked()
	s.listenersMu.Unlock()
	s.listenersGroup.Wait()

	s.sessionsMu.Lock()
	empty := len(s.sessions) == 0
	s.sessionsMu.Unlock()
	if empty {
		s.closeSessionsDoneOnce()
	}

	select {
	case <-ctx.Done():
		s.forceCloseAllSessions()
		return ctx.Err()
	case <-s.sessionsDone:
	}

	return lnerr
}

// Close immediately closes all listeners and force-closes every active
// session. For a graceful drain, use [Server.Shutdown].
func (s *Server) Close() error {
	if !s.draining.CompareAndSwap(false, true) {
		return ErrServerClosed
	}
	s.cancelSessionContexts()

	s.listenersMu.Lock()
	lnerr := s.closeListenersLocked()
	s.listenersMu.Unlock()
	s.listenersGroup.Wait()

	s.forceCloseAllSessions()

	return lnerr
}

func (s *Server) forceCloseAllSessions() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for session := range s.sessions {
		_ = session.conn.Close()
	}
}

// cancelSessionContexts cancels every active session's context so an
// in-flight auth-throttle wait (§4.5) is unblocked the moment shutdown
// begins, instead of only at that session's next command boundary.
func (s *Server) cancelSessionContexts() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for session := range s.sessions {
		session.cancelCtx()
	}
}

func (s *Server) shuttingDown() bool {
	return s.draining.Load()
}

func (s *Server) addSession(session *Session) bool {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if len(s.sessions) >= s.ConnectionsLimit {
		return false
	}
	s.sessions[session] = struct{}{}
	return true
}

func (s *Server) deleteSession(session *Session) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, session)
}

func (s *Server) hasActiveSessions() bool {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions) > 0
}

func (s *Server) closeSessionsDoneOnce() {
	s.sessionsDoneClose.Do(func() { close(s.sessionsDone) })
}

// onceCloseListener wraps a net.Listener, protecting it from multiple Close
// calls.
type onceCloseListener struct {
	net.Listener
	once     sync.Once
	closeErr error
}

func (oc *onceCloseListener) Close() error {
	oc.once.Do(oc.close)
	return oc.closeErr
}

func (oc *onceCloseListener) close() { oc.closeErr = oc.Listener.Close() }

func (s *Server) closeListenersLocked() error {
	var err error
	for ln := range s.listeners {
		if cerr := (*ln).Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) addListener(ln *net.Listener) bool {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	if s.draining.Load() {
		return false
	}
	s.listeners[ln] = struct{}{}
	s.listenersGroup.Add(1)
	return true
}

func (s *Server) removeListener(ln *net.Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	delete(s.listeners, ln)
	s.listenersGroup.Done()
}
