package pop3sf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a [ProtocolError] per the error-handling table. The
// wire line is rendered from the error's Code and Message, so one kind can
// produce more than one line (each syntax error carries its own message,
// and KindOverload covers both "too many connections" and "server shutting
// down").
type ErrorKind int

const (
	KindProtocolSyntax ErrorKind = iota
	KindWrongState
	KindAuthFail
	KindLockBusy
	KindReadOnlyRefusal
	KindOutOfRange
	KindAdapterTransient
	KindAdapterPermanent
	KindTLSFailure
	KindOverload
	KindIdleTimeout
	KindInternalBug
)

// ProtocolError is the only error type command handlers return across the
// dispatch boundary. Its wire line is built from Code and Message by
// [ProtocolError.WireLine]; handlers never write a raw Go error string to
// the client.
type ProtocolError struct {
	Kind ErrorKind

	// Code is the bracketed RFC 2449 extended response code, e.g. "AUTH",
	// "IN-USE", "SYS/TEMP". Empty if the kind carries no extended code.
	Code string

	// Message is the human-readable text following the status token.
	Message string

	// CloseAfterReply, when true, means the connection must be closed right
	// after the reply (or without any reply at all, if Silent is set) is
	// written; no further commands are read.
	CloseAfterReply bool

	// Silent suppresses any wire reply; the connection is simply closed.
	// Used for TlsFailure and IdleTimeout per §7.
	Silent bool

	// wrapped is an optional underlying cause (adapter/transport error),
	// kept for errors.Is/errors.As and logging, never rendered to the wire.
	wrapped error
}

func (e *ProtocolError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.wrapped
}

// WireLine renders the response line for err, without the trailing CRLF.
func (e *ProtocolError) WireLine() string {
	if e.Code != "" {
		return fmt.Sprintf("-ERR [%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("-ERR %s", e.Message)
}

func newProtoErr(kind ErrorKind, code, message string) *ProtocolError {
	return &ProtocolError{Kind: kind, Code: code, Message: message}
}

func errSyntax(message string) *ProtocolError {
	return newProtoErr(KindProtocolSyntax, "", message)
}

func errWrongState() *ProtocolError {
	return newProtoErr(KindWrongState, "", "command not valid in this state")
}

func errAuthFail() *ProtocolError {
	return newProtoErr(KindAuthFail, "AUTH", "authentication failed")
}

func errLockBusy() *ProtocolError {
	return newProtoErr(KindLockBusy, "IN-USE", "mailbox locked")
}

func errReadOnly(message string) *ProtocolError {
	return newProtoErr(KindReadOnlyRefusal, "X-POP3SF-READ-ONLY", message)
}

func errOutOfRange() *ProtocolError {
	return newProtoErr(KindOutOfRange, "", "no such message")
}

func errAdapterTransient(cause error) *ProtocolError {
	e := newProtoErr(KindAdapterTransient, "SYS/TEMP", "backend unavailable")
	e.wrapped = cause
	return e
}

func errAdapterPermanent(cause error) *ProtocolError {
	e := newProtoErr(KindAdapterPermanent, "SYS/PERM", "backend error")
	e.wrapped = cause
	return e
}

func errTLSFailure(cause error) *ProtocolError {
	e := newProtoErr(KindTLSFailure, "", "")
	e.Silent = true
	e.CloseAfterReply = true
	e.wrapped = cause
	return e
}

func errOverload() *ProtocolError {
	e := newProtoErr(KindOverload, "SYS/TEMP", "too many connections")
	e.CloseAfterReply = true
	return e
}

func errIdleTimeout() *ProtocolError {
	e := newProtoErr(KindIdleTimeout, "", "")
	e.Silent = true
	e.CloseAfterReply = true
	return e
}

func errShuttingDown() *ProtocolError {
	e := newProtoErr(KindOverload, "SYS/TEMP", "server shutting down")
	e.CloseAfterReply = true
	return e
}

func errInternal(cause error) *ProtocolError {
	e := newProtoErr(KindInternalBug, "SYS/TEMP", "internal error")
	e.CloseAfterReply = true
	e.wrapped = cause
	return e
}

// Sentinel errors surfaced by adapters/authorizers at the contract boundary;
// these are never rendered directly to the wire, they are translated by the
// session into a [ProtocolError].
var (
	ErrUserNotSpecified       = errors.New("user not specified")
	ErrUserAlreadySpecified   = errors.New("user already specified")
	ErrInvalidCommand         = errors.New("invalid command")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrMessageMarkedAsDeleted = errors.New("message marked as deleted")
	ErrNotSupportedAuthMethod = errors.New("not supported authorization method")
)
