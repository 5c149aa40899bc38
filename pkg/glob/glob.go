// Package glob compiles slash-separated path patterns into matchers.
//
// Supported syntax:
//   - "*" matches any run of characters within one path segment
//   - "?" matches exactly one character within a segment
//   - "**" matches any run of characters across segments
//   - "**/" matches zero or more leading directories
//   - "[abc]", "[a-z]" match one character of a class, "[!abc]" or "[^abc]"
//     one character outside it (never "/")
//   - "{a,b}" matches any of the comma-separated alternatives
//   - a trailing "/" or "/**/" matches everything below that directory
//   - a leading "./" is ignored
package glob

import (
	"regexp"
	"strings"
)

const (
	currentDirPrefix = "./"
	doubleStar       = "**"
	separator        = '/'
)

// Pattern is a compiled glob pattern.
type Pattern struct {
	source string
	rx     *regexp.Regexp
}

// Compile translates a glob pattern into a Pattern. Every input compiles:
// characters without glob meaning are matched literally.
func Compile(pattern string) *Pattern {
	return &Pattern{
		source: pattern,
		rx:     regexp.MustCompile("^" + translate(Normalize(pattern)) + "$"),
	}
}

// Match reports whether path matches pattern.
func Match(pattern, path string) bool {
	return Compile(pattern).Match(path)
}

// Match reports whether path matches the pattern.
func (p *Pattern) Match(path string) bool {
	return p.rx.MatchString(Normalize(path))
}

// String returns the pattern as written.
func (p *Pattern) String() string {
	return p.source
}

// Normalize strips a leading "./" so that "./dist/a.js" and "dist/a.js"
// denote the same relative path.
func Normalize(path string) string {
	for strings.HasPrefix(path, currentDirPrefix) {
		path = path[len(currentDirPrefix):]
	}

	return path
}

func translate(pattern string) string {
	return translateRange(pattern, true)
}

// translateRange translates pattern. top is false inside brace alternatives,
// where a trailing "/" does not stand for the whole directory.
func translateRange(pattern string, top bool) string {
	var sb strings.Builder

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]

		switch {
		case strings.HasPrefix(pattern[i:], doubleStar):
			i += len(doubleStar) - 1

			switch {
			case i+2 == len(pattern) && pattern[i+1] == separator && top:
				// A trailing "**/" matches everything below, like a trailing "/".
				i++

				sb.WriteString(".*")
			case i+1 < len(pattern) && pattern[i+1] == separator:
				// "**/" also matches no directory at all.
				i++

				sb.WriteString("(?:.*/)?")
			default:
				sb.WriteString(".*")
			}
		case ch == '*':
			sb.WriteString("[^/]*")
		case ch == '?':
			sb.WriteString("[^/]")
		case ch == '[':
			class, width, ok := charClass(pattern[i:])
			if !ok {
				sb.WriteString(regexp.QuoteMeta("["))

				continue
			}

			sb.WriteString(class)
			i += width - 1
		case ch == '{':
			alternation, width, ok := braces(pattern[i:])
			if !ok {
				sb.WriteString(regexp.QuoteMeta("{"))

				continue
			}

			sb.WriteString(alternation)
			i += width - 1
		case ch == separator && i == len(pattern)-1 && top:
			sb.WriteString("/.*")
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}

	return sb.String()
}

// charClass translates a "[...]" class at the start of s. "!" or "^" negates
// it; a negated class never matches "/". ok is false when s holds no closed,
// valid class, in which case "[" is literal.
func charClass(s string) (class string, width int, ok bool) {
	body := s[1:]

	negated := strings.HasPrefix(body, "!") || strings.HasPrefix(body, "^")
	if negated {
		body = body[1:]
	}

	// A "]" right after the opening bracket belongs to the class.
	end := strings.IndexByte(body[min(1, len(body)):], ']')
	if end < 0 {
		return "", 0, false
	}

	end += min(1, len(body))
	members := body[:end]

	var sb strings.Builder

	sb.WriteByte('[')

	if negated {
		sb.WriteString("^/")
	}

	for _, c := range []byte(members) {
		switch c {
		case '\\', '[', ']', '^':
			sb.WriteByte('\\')
		}

		sb.WriteByte(c)
	}

	sb.WriteByte(']')

	class = sb.String()

	_, err := regexp.Compile(class)
	if err != nil {
		return "", 0, false
	}

	width = len(s) - len(body) + end + 1

	return class, width, true
}

// braces translates a "{a,b}" alternation at the start of s. Alternatives
// may nest. ok is false when the brace is not closed or holds a single
// alternative, in which case "{" is literal.
func braces(s string) (alternation string, width int, ok bool) {
	depth := 0
	last := 1

	var alternatives []string

	for i := range len(s) {
		switch s[i] {
		case '{':
			depth++
		case ',':
			if depth == 1 {
				alternatives = append(alternatives, s[last:i])
				last = i + 1
			}
		case '}':
			depth--
			if depth > 0 {
				continue
			}

			if len(alternatives) == 0 {
				return "", 0, false
			}

			alternatives = append(alternatives, s[last:i])

			translated := make([]string, len(alternatives))
			for j, alt := range alternatives {
				translated[j] = translateRange(alt, false)
			}

			return "(?:" + strings.Join(translated, "|") + ")", i + 1, true
		}
	}

	return "", 0, false
}
