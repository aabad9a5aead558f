package storagefmt

import (
	"strings"
)

// prescan validates the raw source before the real parser sees it.  goldmark
// is deliberately forgiving (an unterminated fence swallows the rest of the
// document as code), so the checks that should be hard errors live here, with
// line numbers the parser no longer has.
func prescan(src []byte) error {
	lines := strings.Split(string(src), "\n")

	inFence := false
	fenceChar := byte(0)
	fenceLen := 0
	fenceLine := 0
	fenceQuote := 0

	for i, raw := range lines {
		lineNo := i + 1

		if inFence {
			// Inside a fence, strip only the prefix the fence itself was
			// opened under.  Anything beyond that is fence content and must
			// not be reinterpreted.
			body := stripQuoteMarkers(raw, fenceQuote)
			if isFenceClose(body, fenceChar, fenceLen) {
				inFence = false
			}
			continue
		}

		line, quote := stripBlockPrefix(raw)

		if ch, n, ok := fenceOpen(line); ok {
			inFence = true
			fenceChar, fenceLen, fenceLine, fenceQuote = ch, n, lineNo, quote
			continue
		}

		if indentWidth(line) >= 4 {
			// Indented code block line; its content is literal.
			continue
		}

		// Table check: a pipe row followed by an attempted delimiter row.
		if strings.HasPrefix(strings.TrimSpace(line), "|") && i+1 < len(lines) {
			next, _ := stripBlockPrefix(lines[i+1])
			if looksLikeDelimiterRow(next) {
				if err := checkDelimiterRow(next, i+2); err != nil {
					return err
				}
			}
		}
	}

	if inFence {
		return &MalformedMarkdownError{Line: fenceLine, Reason: "unterminated code fence"}
	}

	return nil
}

// stripBlockPrefix removes leading blockquote markers (each allowed up to 3
// spaces of indentation per CommonMark) so fences inside quotes are still
// tracked, and reports how many quote levels it removed.  Indentation after
// the last marker is left in place; fenceOpen needs it.
func stripBlockPrefix(line string) (string, int) {
	depth := 0
	for {
		trimmed := line[indentUpTo(line, 3):]
		switch {
		case strings.HasPrefix(trimmed, "> "):
			line = trimmed[2:]
			depth++
		case trimmed == ">":
			return "", depth + 1
		case strings.HasPrefix(trimmed, ">"):
			line = trimmed[1:]
			depth++
		default:
			return line, depth
		}
	}
}

// stripQuoteMarkers removes up to depth blockquote markers.  A line carrying
// fewer markers (lazy continuation) is returned from where the markers
// stopped matching.
func stripQuoteMarkers(line string, depth int) string {
	for ; depth > 0; depth-- {
		trimmed := line[indentUpTo(line, 3):]
		switch {
		case strings.HasPrefix(trimmed, "> "):
			line = trimmed[2:]
		case trimmed == ">":
			return ""
		case strings.HasPrefix(trimmed, ">"):
			line = trimmed[1:]
		default:
			return line
		}
	}
	return line
}

// indentUpTo counts leading spaces, stopping at max.
func indentUpTo(line string, max int) int {
	n := 0
	for n < len(line) && n < max && line[n] == ' ' {
		n++
	}
	return n
}

func indentWidth(line string) int {
	n := 0
	for n < len(line) {
		switch line[n] {
		case ' ':
			n++
			continue
		case '\t':
			// A tab in the indent makes it an indented code block either
			// way; saturate.
			return 4
		}
		break
	}
	return n
}

// fenceOpen reports a fence opener: at most 3 leading spaces, then a run of
// at least 3 backticks or tildes.  Four or more spaces is an indented code
// block, not a fence (the probe for that is indentWidth above).
func fenceOpen(line string) (byte, int, bool) {
	indent := indentUpTo(line, 4)
	if indent > 3 {
		return 0, 0, false
	}
	rest := line[indent:]
	if len(rest) < 3 {
		return 0, 0, false
	}
	ch := rest[0]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	// An info string containing the fence character is not a fence (e.g.
	// ```` inline `` ```` constructs), but backtick info strings are already
	// forbidden by CommonMark, so keep this simple.
	return ch, n, true
}

// isFenceClose recognises a closing fence: at most 3 leading spaces, a run of
// the opening character at least as long as the opener, and nothing else.
func isFenceClose(line string, ch byte, minLen int) bool {
	indent := indentUpTo(line, 4)
	if indent > 3 {
		return false
	}
	rest := line[indent:]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	return n >= minLen && strings.TrimSpace(rest[n:]) == ""
}

// looksLikeDelimiterRow reports whether the author appears to have meant a
// table header separator: nothing but pipes, colons, dashes and spaces, with
// at least one dash or colon.
func looksLikeDelimiterRow(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") {
		return false
	}
	meaningful := false
	for _, r := range line {
		switch r {
		case '|', ' ', '\t':
		case '-', ':':
			meaningful = true
		default:
			return false
		}
	}
	return meaningful
}

// checkDelimiterRow enforces the one bit of table syntax we refuse to guess
// about: every cell of the separator must be a valid `---` / `:--` / `--:` /
// `:-:` run.  Ragged body rows are tolerated (they get padded later); a
// broken separator means the whole table would silently render as prose, so
// it's an error instead.
func checkDelimiterRow(line string, lineNo int) error {
	cells := splitTableRow(line)
	if len(cells) == 0 {
		return &MalformedMarkdownError{Line: lineNo, Reason: "empty table delimiter row"}
	}
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		body := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
		if body == "" || strings.Trim(body, "-") != "" {
			return &MalformedMarkdownError{
				Line:   lineNo,
				Reason: "invalid table delimiter cell " + strings.TrimSpace(cell),
			}
		}
	}
	return nil
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	return strings.Split(line, "|")
}
