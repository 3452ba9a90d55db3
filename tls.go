package pop3sf

import (
	"bufio"
	"crypto/tls"
	"net"
)

// upgradeToTLS performs the in-band STLS handshake on s (§4.7).
//
// Unlike a STARTTLS upgrade that preserves bytes already buffered ahead of
// the handshake (as luhaoyun888-go-imap-cn/imapserver/starttls.go does via
// io.MultiReader), this discards whatever plaintext bytes are sitting in
// the pre-TLS read buffer: RFC 2595 requires any pipelined plaintext
// commands to be dropped rather than replayed through the now-TLS
// connection, since replaying them is exactly the command-injection the
// drain requirement exists to prevent.
func (s *Session) upgradeToTLS(cfg *tls.Config) error {
	nc, ok := s.conn.(net.Conn)
	if !ok {
		return errTLSFailure(nil)
	}

	// The bufio.Reader backing s.r may already hold bytes read ahead of the
	// STLS command's CRLF; those are deliberately discarded by replacing
	// the reader outright rather than draining it into the new connection.
	tlsConn := tls.Server(nc, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return errTLSFailure(err)
	}

	s.conn = tlsConn
	s.r = bufio.NewReader(tlsConn)
	s.isTLS = true
	return nil
}
