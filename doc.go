// Package pop3sf implements a POP3 server engine: the per-connection session
// state machine, command parser, mailbox locking, auth throttling and TLS
// negotiation required by RFC 1939, RFC 2449, RFC 3206 and RFC 6856.
//
// The engine knows nothing about where messages actually live. It is built
// against the [Mailbox], [MailboxProvider] and [Authorizer] interfaces; a
// concrete backend (directory-backed, SQL-backed, ...) implements those and
// is handed to [NewServer]. Two trivial, non-persistent reference
// implementations ([EmptyMailboxProvider], [AllowAllAuthorizer]) are included
// for tests and examples only.
package pop3sf
