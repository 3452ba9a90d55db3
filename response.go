package pop3sf

import "fmt"

// messageView is one entry of a session's message view (§3): an immutable,
// per-session snapshot built once at login from the mailbox's List/Uidl
// results.
type messageView struct {
	size    int
	uid     string
	deleted bool
}

// Pure, independently testable response-line builders. Factored out of
// session.go's I/O so the listing logic can be tested without a mock
// connection, grounded on migadu-sora/server/pop3/response.go's
// buildListResponseLines/buildUIDLResponseLines/computeDeletedStats split
// between pure list-building and byte-writing session code.

// buildListLines renders the multi-line body for LIST with no argument:
// "<n> <size>" for every non-deleted message, in message-number order.
func buildListLines(views []messageView) []string {
	var lines []string
	for i, v := range views {
		if !v.deleted {
			lines = append(lines, fmt.Sprintf("%d %d", i+1, v.size))
		}
	}
	return lines
}

// buildUidlLines renders the multi-line body for UIDL with no argument:
// "<n> <uid>" for every non-deleted message, in message-number order.
func buildUidlLines(views []messageView) []string {
	var lines []string
	for i, v := range views {
		if !v.deleted {
			lines = append(lines, fmt.Sprintf("%d %s", i+1, v.uid))
		}
	}
	return lines
}

// countNonDeleted returns the number of messages not marked as deleted.
func countNonDeleted(views []messageView) int {
	count := 0
	for _, v := range views {
		if !v.deleted {
			count++
		}
	}
	return count
}

// totalSizeNonDeleted returns the sum of sizes of non-deleted messages, the
// total STAT must report (invariant 3).
func totalSizeNonDeleted(views []messageView) int {
	total := 0
	for _, v := range views {
		if !v.deleted {
			total += v.size
		}
	}
	return total
}

// resolveMessageNumber validates a 1-based message number argument against
// views, returning its 0-based index. It fails with [errOutOfRange] if the
// number is out of range or the message is already deleted
// (§4.2, §4.6).
func resolveMessageNumber(views []messageView, n int) (int, *ProtocolError) {
	idx := n - 1
	if idx < 0 || idx >= len(views) {
		return 0, errOutOfRange()
	}
	if views[idx].deleted {
		return 0, errOutOfRange()
	}
	return idx, nil
}
