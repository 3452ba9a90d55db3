package pop3sf

import "io"

type (
	// Conn is the transport the engine speaks POP3 over. A plain TCP or TLS
	// connection satisfies it; tests use a hand-rolled in-memory double.
	Conn interface {
		io.ReadWriteCloser
	}

	// MailboxProvider opens a [Mailbox] snapshot for an authenticated user.
	MailboxProvider interface {
		// Provide returns a mailbox snapshot for user, opened in readOnly
		// mode if requested. Implementations must make the read-only case
		// idempotent: opening the same user's mailbox read-only from
		// multiple sessions concurrently must succeed for all of them.
		Provide(user string, readOnly bool) (Mailbox, error)
	}

	// Mailbox represents a backend interface for a single mailbox.
	//
	// All msgNumber arguments are 0-based indices. Any method that takes
	// msgNumber as an argument will be called with values in the range
	// [0..numberOfMessages-1] (inclusive). Ensuring msgNumber is within this
	// range is the responsibility of the [Session].
	Mailbox interface {
		// Stat returns the total number of messages in the mailbox and the
		// total size of all messages. The session does not call it: STAT
		// totals and message-number checks come from the message view built
		// from List and Uidl.
		Stat() (numberOfMessages int, totalSize int, err error)

		// List returns the sizes of all messages in the mailbox, in
		// message-number order. Used to build the session's message view
		// and for the LIST command without arguments.
		List() (messageSizes []int, err error)

		// Message returns an io.ReadCloser over the content of a specific
		// message. Used for RETR and TOP. Called at most once per command.
		Message(msgNumber int) (msgReader io.ReadCloser, err error)

		// Dele marks a specific message for deletion from the mailbox.
		// Called in the UPDATE state (after the client issues QUIT from
		// TRANSACTION) for every message the session marked as deleted.
		Dele(msgNumber int) error

		// Uidl returns a list of unique identifiers for all messages in the
		// mailbox, in the same order as List. Used to build the session's
		// message view and for the UIDL command without arguments.
		Uidl() (uidls []string, err error)

		// Close is called at the end of a session after all required Dele
		// calls are completed (on a clean QUIT from TRANSACTION), or
		// instead of any Dele calls when the session never reached UPDATE.
		// If the mailbox additionally implements [Abandoner], Abandon is
		// called instead of Dele/Close on the non-UPDATE path.
		io.Closer
	}

	// Abandoner is an optional capability a [Mailbox] may implement to
	// distinguish "release resources without committing" from a normal
	// close. A session that never reaches UPDATE (idle timeout, client
	// drop, shutdown, protocol error) calls Abandon instead of Close when
	// it is implemented; otherwise plain Close is used for both paths.
	Abandoner interface {
		Abandon() error
	}

	// Authorizer is the authorization interface, the merge of
	// [UserPassAuthorizer] and [ApopAuthorizer].
	//
	// An implementation signals that it lacks support for a particular
	// authorization method by returning [ErrNotSupportedAuthMethod]. Both
	// methods are probed once with empty parameters when a [Session] is
	// constructed.
	Authorizer interface {
		UserPassAuthorizer
		ApopAuthorizer
	}

	// UserPassAuthorizer authenticates a user with a username and password
	// (the USER/PASS commands, and AUTH PLAIN).
	UserPassAuthorizer interface {
		// UserPass authenticates user/pass. A nil return means success.
		//
		// Returning [ErrNotSupportedAuthMethod] signals that this
		// authorizer does not support USER/PASS authentication at all; the
		// USER capability and command are then removed for the session.
		UserPass(user, pass string) error
	}

	// ApopAuthorizer authenticates a user via the APOP mechanism.
	ApopAuthorizer interface {
		// Apop verifies user against the MD5 digest of timestampBanner
		// concatenated with the user's shared secret. A nil return means
		// success.
		//
		// Returning [ErrNotSupportedAuthMethod] signals that this
		// authorizer does not support APOP; the session then omits the
		// timestamp banner from its greeting and APOP from CAPA.
		Apop(user, timestampBanner, digest string) error
	}

	apopDisabler struct {
		UserPassAuthorizer
	}

	userPassDisabler struct {
		ApopAuthorizer
	}
)

var (
	_ Authorizer = (*apopDisabler)(nil)
	_ Authorizer = (*userPassDisabler)(nil)
)

// DisableApop wraps a [UserPassAuthorizer] and explicitly signals that APOP
// authentication is not supported, so the session omits the APOP timestamp
// banner.
func DisableApop(a UserPassAuthorizer) apopDisabler {
	return apopDisabler{UserPassAuthorizer: a}
}

func (apopDisabler) Apop(user, timestampBanner, digest string) error {
	return ErrNotSupportedAuthMethod
}

// DisableUserPass wraps an [ApopAuthorizer] and explicitly signals that
// USER/PASS authentication is not supported, so the session removes the
// USER capability and command.
func DisableUserPass(a ApopAuthorizer) userPassDisabler {
	return userPassDisabler{ApopAuthorizer: a}
}

func (userPassDisabler) UserPass(user, pass string) error {
	return ErrNotSupportedAuthMethod
}
