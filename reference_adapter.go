package pop3sf

import (
	"errors"
	"io"
)

var (
	_ Mailbox         = (*EmptyMailbox)(nil)
	_ MailboxProvider = (*EmptyMailboxProvider)(nil)
	_ Authorizer      = (*AllowAllAuthorizer)(nil)
)

// EmptyMailbox is a trivial, non-persistent [Mailbox] representing an
// always-empty mailbox. It exists only to exercise the adapter contract in
// tests and examples; it is not a real backend.
type EmptyMailbox struct{}

func (EmptyMailbox) Stat() (int, int, error) {
	return 0, 0, nil
}

func (EmptyMailbox) List() ([]int, error) {
	return nil, nil
}

func (EmptyMailbox) Message(_ int) (io.ReadCloser, error) {
	return nil, errors.New("no such message")
}

func (EmptyMailbox) Dele(_ int) error {
	return nil
}

func (EmptyMailbox) Uidl() ([]string, error) {
	return nil, nil
}

func (EmptyMailbox) Close() error {
	return nil
}

// EmptyMailboxProvider is a trivial [MailboxProvider] that returns an
// [EmptyMailbox] for every user, regardless of read-only mode.
type EmptyMailboxProvider struct{}

func (EmptyMailboxProvider) Provide(user string, readOnly bool) (Mailbox, error) {
	return EmptyMailbox{}, nil
}

// AllowAllAuthorizer is a trivial [Authorizer] that accepts any user with
// any credentials, over USER/PASS, AUTH PLAIN and APOP alike (so a session
// using it offers APOP), and imposes no read-only restriction of its own.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) UserPass(user, pass string) error {
	return nil
}

func (AllowAllAuthorizer) Apop(user, timestampBanner, digest string) error {
	return nil
}
