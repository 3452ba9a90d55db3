package pop3sf

import "github.com/emersion/go-sasl"

// newPlainSASLServer builds a SASL PLAIN server mechanism that authenticates
// through the same [UserPassAuthorizer] the USER/PASS commands use, so AUTH
// PLAIN funnels into the same auth-throttle choke point (§9, DOMAIN STACK).
//
// Grounded on luhaoyun888-go-imap-cn/imapserver/authenticate.go's
// handleAuthenticate, which wires sasl.NewPlainServer the same way for its
// own AUTHENTICATE command.
func newPlainSASLServer(authorizer UserPassAuthorizer, onSuccess func(identity, username string)) sasl.Server {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if identity != "" && identity != username {
			return ErrInvalidArgument
		}
		if err := authorizer.UserPass(username, password); err != nil {
			return err
		}
		onSuccess(identity, username)
		return nil
	})
}
