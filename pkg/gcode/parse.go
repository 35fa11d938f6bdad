package gcode

import (
	"strconv"
	"strings"
)

// ParseLine parses a single raw line. It never fails: input that cannot be
// interpreted as a command is classified as KindUnknown (or KindComment /
// KindEmpty) so the caller can pass it through unchanged.
func ParseLine(raw string) Line {
	line := Line{Kind: KindUnknown, Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		line.Kind = KindEmpty
		return line
	}
	if trimmed[0] == ';' {
		line.Kind = KindComment
		line.Comment = trimmed
		return line
	}
	if trimmed[0] == '@' {
		name, params, _ := strings.Cut(trimmed[1:], " ")
		if name == "" {
			return line
		}
		line.Kind = KindAtCommand
		line.AtCommand = name
		line.AtParams = strings.TrimSpace(params)
		return line
	}

	body := trimmed
	if idx := strings.IndexByte(body, ';'); idx >= 0 {
		line.Comment = body[idx:]
		body = strings.TrimRight(body[:idx], " \t")
		if body == "" {
			line.Kind = KindComment
			return line
		}
	}

	cmd, ok := parseCommand(body)
	if !ok {
		return line
	}
	line.Kind = KindCommand
	line.Command = cmd
	return line
}

type lexer struct {
	s   string
	pos int
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.s) }

func (lx *lexer) peek() byte { return lx.s[lx.pos] }

func (lx *lexer) skipSpace() {
	for !lx.eof() && (lx.peek() == ' ' || lx.peek() == '\t') {
		lx.pos++
	}
}

// uint consumes a run of digits. ok is false if no digit was present.
func (lx *lexer) uint() (int, bool) {
	start := lx.pos
	for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '9' {
		lx.pos++
	}
	if lx.pos == start {
		return 0, false
	}
	v, err := strconv.Atoi(lx.s[start:lx.pos])
	if err != nil {
		return 0, false
	}
	return v, true
}

// float consumes a signed decimal number. ok is false (and the position is
// restored) if the text at the cursor is not a number.
func (lx *lexer) float() (float64, bool) {
	start := lx.pos
	if !lx.eof() && (lx.peek() == '+' || lx.peek() == '-') {
		lx.pos++
	}
	digits := 0
	for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '9' {
		lx.pos++
		digits++
	}
	if !lx.eof() && lx.peek() == '.' {
		lx.pos++
		for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '9' {
			lx.pos++
			digits++
		}
	}
	if digits == 0 {
		lx.pos = start
		return 0, false
	}
	v, err := strconv.ParseFloat(lx.s[start:lx.pos], 64)
	if err != nil {
		lx.pos = start
		return 0, false
	}
	return v, true
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func parseCommand(body string) (*Command, bool) {
	lx := &lexer{s: body}
	cmd := &Command{SubCode: -1, LineNumber: -1, Checksum: -1}

	lx.skipSpace()
	if lx.eof() || !isLetter(lx.peek()) {
		return nil, false
	}

	// Optional line number.
	if upper(lx.peek()) == 'N' {
		save := lx.pos
		lx.pos++
		lx.skipSpace()
		if n, ok := lx.uint(); ok {
			cmd.LineNumber = n
			lx.skipSpace()
		} else {
			lx.pos = save
		}
	}

	if lx.eof() || !isLetter(lx.peek()) {
		return nil, false
	}
	typ := upper(lx.peek())
	switch typ {
	case 'G', 'M', 'T':
		cmd.Type = string(typ)
	default:
		return nil, false
	}
	lx.pos++
	lx.skipSpace()

	code, ok := lx.uint()
	if !ok {
		return nil, false
	}
	cmd.Code = code

	// Optional subcode (G/M only), e.g. "M80.1".
	if cmd.Type != "T" && !lx.eof() && lx.peek() == '.' {
		save := lx.pos
		lx.pos++
		if sub, ok := lx.uint(); ok {
			cmd.SubCode = sub
		} else {
			lx.pos = save
		}
	}

	// Parameters. A parameter letter with no parseable value starts the
	// free-form string argument (M117 and friends), but parameter letters
	// are still collected so callers can test for their presence.
	stringArgStart := -1
	for {
		lx.skipSpace()
		if lx.eof() {
			break
		}
		c := lx.peek()
		if c == '*' {
			// Checksum terminates the command text (Marlin truncates
			// everything after the first asterisk).
			lx.pos++
			if sum, ok := lx.uint(); ok {
				cmd.Checksum = sum
			}
			break
		}
		if isLetter(c) {
			letterPos := lx.pos
			lx.pos++
			lx.skipSpace()
			if v, ok := lx.float(); ok {
				cmd.Params = append(cmd.Params, Param{Letter: upper(c), Value: v, HasValue: true})
			} else {
				cmd.Params = append(cmd.Params, Param{Letter: upper(c)})
				if stringArgStart < 0 {
					stringArgStart = letterPos
				}
			}
			continue
		}
		// Not a letter and not a checksum: the remainder is free text.
		if stringArgStart < 0 {
			stringArgStart = lx.pos
		}
		lx.pos++
	}

	if stringArgStart >= 0 {
		arg := body[stringArgStart:]
		if idx := strings.IndexByte(arg, '*'); idx >= 0 && cmd.Checksum >= 0 {
			arg = arg[:idx]
		}
		cmd.StringArg = strings.TrimSpace(arg)
	}
	return cmd, true
}
