package pop3sf

import (
	"bufio"
	"bytes"
	"io"
	"net/textproto"
	"strings"
)

// maxCommandLineLength is the maximum number of octets a command line may
// occupy, including its CRLF terminator (§4.1).
const maxCommandLineLength = 255

// readCommandLine reads one CRLF-terminated line from r, without the
// terminator. It returns errSyntax("line too long") if the line (including
// CRLF) would exceed maxCommandLineLength; the caller must close the
// connection in that case.
func readCommandLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) > maxCommandLineLength {
		return "", errSyntax("line too long")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Stuff applies RFC 1939 byte-stuffing to msg: every line that begins with
// '.' gets an extra leading '.'. msg is treated as a sequence of lines
// separated by "\r\n"; Stuff never splits a CRLF pair.
//
// Stuff and Unstuff are exact inverses: Unstuff(Stuff(msg)) == msg for any
// msg.
func Stuff(msg []byte) []byte {
	if len(msg) == 0 {
		return msg
	}

	var out bytes.Buffer
	lines := splitLinesKeepSep(msg)
	for _, line := range lines {
		if len(line) > 0 && line[0] == '.' {
			out.WriteByte('.')
		}
		out.Write(line)
	}
	return out.Bytes()
}

// Unstuff reverses [Stuff]: every line beginning with ".." has one leading
// dot removed.
func Unstuff(msg []byte) []byte {
	if len(msg) == 0 {
		return msg
	}

	var out bytes.Buffer
	lines := splitLinesKeepSep(msg)
	for _, line := range lines {
		if len(line) >= 2 && line[0] == '.' && line[1] == '.' {
			line = line[1:]
		}
		out.Write(line)
	}
	return out.Bytes()
}

// splitLinesKeepSep splits msg into lines, each line including its trailing
// "\r\n" if present (the final line may lack one). It never splits a CRLF
// pair across two returned slices.
func splitLinesKeepSep(msg []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(msg); i++ {
		if msg[i] == '\n' {
			lines = append(lines, msg[start:i+1])
			start = i + 1
		}
	}
	if start < len(msg) {
		lines = append(lines, msg[start:])
	}
	return lines
}

// newDotWriter returns a [io.WriteCloser] that byte-stuffs everything
// written to it and, on Close, writes the "." CRLF terminator. This is the
// streaming counterpart of [Stuff], used for RETR/TOP/LIST/UIDL/CAPA bodies
// so large message bodies never have to be buffered in memory.
//
// Grounded on net/textproto.Writer.DotWriter, the standard library's own
// POP3/NNTP/SMTP dot-stuffing primitive.
func newDotWriter(w io.Writer) io.WriteCloser {
	return textproto.NewWriter(bufio.NewWriter(w)).DotWriter()
}

// copyHeadersAndBody copies email headers and up to lineLimit body lines
// from r to w, normalizing all line endings to CRLF. Used by TOP; the
// caller is expected to wrap w in a dot-stuffing writer.
func copyHeadersAndBody(w io.Writer, r io.Reader, lineLimit int) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	headersDone := false
	lineCount := 0

	for scanner.Scan() {
		line := scanner.Bytes()

		if !headersDone {
			if len(line) == 0 {
				headersDone = true
			}
		} else {
			lineCount++
		}

		if lineCount > lineLimit {
			break
		}

		if _, err := w.Write(line); err != nil {
			return err
		}
		if _, err := w.Write(crlf); err != nil {
			return err
		}
	}

	return scanner.Err()
}

var crlf = []byte("\r\n")
