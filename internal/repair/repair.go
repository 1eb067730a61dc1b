// Package repair turns near-JSON model output into a parsed value. Output
// from the extraction model is frequently wrapped in Markdown fences or
// truncated mid-token; SafeParse closes what it can and never fails loudly.
package repair

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Failure describes model output that could not be parsed even after repair.
type Failure struct {
	Source   string
	Original string
	Repaired string
	Err      error
}

// FailureSink receives unrepairable output for later diagnosis.
type FailureSink interface {
	Archive(ctx context.Context, f Failure) error
}

// Parser parses untrusted model output. The zero value is usable and silent.
type Parser struct {
	log  zerolog.Logger
	sink FailureSink
}

// NewParser creates a parser that logs failures and optionally archives them.
func NewParser(log zerolog.Logger, sink FailureSink) *Parser {
	return &Parser{log: log, sink: sink}
}

// SafeParse parses text with a Parser that neither logs nor archives.
func SafeParse(text string) any {
	return (&Parser{log: zerolog.Nop()}).Parse(context.Background(), "", text)
}

// Parse returns the decoded value of text, repairing it if needed, or nil
// when even the repaired text is not valid JSON. source labels the batch the
// text came from in logs and archives.
func (p *Parser) Parse(ctx context.Context, source, text string) any {
	clean := CleanText(text)
	if clean == "" {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(clean), &v); err == nil {
		return v
	}

	repaired := Repair(clean)
	err := json.Unmarshal([]byte(repaired), &v)
	if err == nil {
		p.log.Debug().Str("source", source).Int("original_len", len(clean)).Msg("Repaired malformed model output")
		return v
	}

	p.log.Warn().
		Err(err).
		Str("source", source).
		Str("original", clean).
		Str("repaired", repaired).
		Msg("Model output could not be repaired")

	if p.sink != nil {
		if archiveErr := p.sink.Archive(ctx, Failure{
			Source:   source,
			Original: clean,
			Repaired: repaired,
			Err:      err,
		}); archiveErr != nil {
			p.log.Error().Err(archiveErr).Str("source", source).Msg("Failed to archive unrepairable output")
		}
	}
	return nil
}

// CleanText strips Markdown code fences, surrounding whitespace and any prose
// before the first '{' or '['.
func CleanText(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimLeft(s, "`")
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	return strings.TrimSpace(s)
}

var (
	danglingUnicode = regexp.MustCompile(`\\u[0-9a-fA-F]{0,3}$`)
	numberTail      = regexp.MustCompile(`([0-9])(?:\.|[eE][+-]?)$`)
	danglingMinus   = regexp.MustCompile(`([:\[,]\s*)-$`)
	partialKeyword  = regexp.MustCompile(`([:\[,]\s*)(t|tr|tru|f|fa|fal|fals|n|nu|nul)$`)
)

var keywordCompletion = map[string]string{
	"t": "true", "tr": "true", "tru": "true",
	"f": "false", "fa": "false", "fal": "false", "fals": "false",
	"n": "null", "nu": "null", "nul": "null",
}

// Repair closes a truncated JSON document: it terminates an open string,
// drops a trailing comma, completes a cut keyword or number, gives a dangling
// key or colon a null value, and appends the missing closing brackets.
func Repair(text string) string {
	s := strings.TrimSpace(text)

	inString, escaped := scanQuotes(s)
	if inString {
		if escaped {
			s = s[:len(s)-1]
		}
		s = danglingUnicode.ReplaceAllString(s, "")
		s += `"`
	}

	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimRight(s, " \t\r\n")

	s = numberTail.ReplaceAllString(s, "$1")
	s = strings.TrimRight(danglingMinus.ReplaceAllString(s, "$1"), " \t\r\n")
	s = strings.TrimSuffix(s, ",")

	if m := partialKeyword.FindStringSubmatch(s); m != nil {
		s = s[:len(s)-len(m[2])] + keywordCompletion[m[2]]
	}

	if strings.HasSuffix(s, ":") {
		s += "null"
	} else if endsWithDanglingKey(s) {
		s += ": null"
	}

	return s + closers(s)
}

// scanQuotes walks s honouring backslash escapes and reports whether it
// ends inside a string, and whether that string ends on an escape character.
func scanQuotes(s string) (inString, escaped bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		}
	}
	return inString, escaped
}

// endsWithDanglingKey reports whether s ends with a quoted string sitting in
// key position of an open object, e.g. `{"a":1,"b"`.
func endsWithDanglingKey(s string) bool {
	if !strings.HasSuffix(s, `"`) {
		return false
	}

	var stack []byte
	inString, escaped := false, false
	stringStart := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			stringStart = i
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if stringStart < 0 || len(stack) == 0 || stack[len(stack)-1] != '{' {
		return false
	}

	before := strings.TrimRight(s[:stringStart], " \t\r\n")
	return strings.HasSuffix(before, "{") || strings.HasSuffix(before, ",")
}

// closers returns the brackets and braces needed to balance s, innermost first.
func closers(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
