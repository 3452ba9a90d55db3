package pop3sf

import (
	"strconv"
	"strings"
)

type command struct {
	name    string
	args    []string
	numArgs []int
}

const (
	userCmd = "USER"
	passCmd = "PASS"
	statCmd = "STAT"
	listCmd = "LIST"
	retrCmd = "RETR"
	deleCmd = "DELE"
	noopCmd = "NOOP"
	rsetCmd = "RSET"
	quitCmd = "QUIT"
	apopCmd = "APOP"
	topCmd  = "TOP"
	uidlCmd = "UIDL"
	capaCmd = "CAPA"
	stlsCmd = "STLS"
	utf8Cmd = "UTF8"
	langCmd = "LANG"
	xproCmd = "XPRO"
	authCmd = "AUTH"
)

var (
	validInAuthState = map[string]bool{
		userCmd: true,
		passCmd: true,
		quitCmd: true,
		apopCmd: true,
		capaCmd: true,
		stlsCmd: true,
		utf8Cmd: true,
		langCmd: true,
		xproCmd: true,
		authCmd: true,
	}

	validInTransState = map[string]bool{
		statCmd: true,
		listCmd: true,
		retrCmd: true,
		deleCmd: true,
		noopCmd: true,
		rsetCmd: true,
		quitCmd: true,
		topCmd:  true,
		uidlCmd: true,
		capaCmd: true,
		langCmd: true,
	}
)

func (c *command) oneNumArg() bool {
	return len(c.args) == 1 && c.numArgs[0] >= 0
}

func (c *command) twoNumArgs() bool {
	return len(c.args) == 2 && c.numArgs[0] >= 0 && c.numArgs[1] >= 0
}

func (c *command) isValidInState(state sessionState) bool {
	switch state {
	case authorizationState:
		return validInAuthState[c.name]
	case transactionState:
		return validInTransState[c.name]
	}
	return false
}

// parse splits line on single space characters into the verb and at most
// two arguments; the second argument keeps any further spaces (so a PASS
// password may contain spaces). Other whitespace, such as a tab, does not
// separate tokens. The verb is upper-cased. If everything after the verb is
// one quoted string (e.g. `USER "name with spaces"`), it becomes a single
// argument with its surrounding quotes stripped; otherwise each argument has
// one surrounding pair of quotes stripped — a parsing convenience beyond bare
// RFC 1939 tokenization, not a change to it (§4.2).
func (c *command) parse(line string) {
	parts := strings.SplitN(line, " ", 3)
	c.name = strings.ToUpper(parts[0])
	c.args = parts[1:]
	if len(parts) > 1 {
		rest := line[len(parts[0])+1:]
		if len(rest) >= 2 && rest[0] == '"' && strings.IndexByte(rest[1:], '"') == len(rest)-2 {
			c.args = []string{rest}
		}
	}
	for i, arg := range c.args {
		c.args[i] = unquoteArg(arg)
	}

	c.numArgs = make([]int, len(c.args))
	for i, arg := range c.args {
		numArg, err := strconv.Atoi(arg)
		if err == nil && numArg >= 1 && arg[0] != '+' {
			c.numArgs[i] = numArg - 1
		} else {
			c.numArgs[i] = -1
		}
	}
}

// unquoteArg strips one layer of surrounding double quotes from arg, if
// present, leaving its contents (including any internal whitespace)
// untouched. Arguments without surrounding quotes are returned unchanged.
func unquoteArg(arg string) string {
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		return arg[1 : len(arg)-1]
	}
	return arg
}
