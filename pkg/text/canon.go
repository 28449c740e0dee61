package text

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyName is returned for a name with no visible text.
	ErrEmptyName = errors.New("name is empty")
	// ErrBadFirstChar rejects names starting with *, !, #, or space.
	ErrBadFirstChar = errors.New("name may not start with *, !, #, or a space")
	// ErrTrailingSpace rejects names ending with a space.
	ErrTrailingSpace = errors.New("name may not end with a space")
	// ErrBadCodepoint rejects a name containing a non-printable, arg-delim,
	// or and/or-token codepoint.
	ErrBadCodepoint = errors.New("name contains a disallowed character")
	// ErrReservedWord rejects me/home/here.
	ErrReservedWord = errors.New("name is a reserved word")
	// ErrTooLong rejects a player name past PLAYER_NAME_LIMIT.
	ErrTooLong = errors.New("name is too long")
)

var reservedWords = map[string]bool{"me": true, "home": true, "here": true}

func isReserved(s string) bool { return reservedWords[strings.ToLower(s)] }

// validateCommon applies the shared object/exit/player name rules from
// spec.md §4.2: non-empty, first visible codepoint not in {*, !, #,
// space}, last not space, every codepoint printable-non-special, and not
// a reserved word.
func validateCommon(s string) error {
	if s == "" {
		return ErrEmptyName
	}
	runes := []rune(s)
	if rejectedFirst(runes[0]) {
		return ErrBadFirstChar
	}
	if IsSpace(runes[len(runes)-1]) {
		return ErrTrailingSpace
	}
	for _, r := range runes {
		if !IsPrintable(r) && !IsSpace(r) {
			return ErrBadCodepoint
		}
		if IsArgDelim(r) || IsAndOr(r) {
			return ErrBadCodepoint
		}
	}
	if isReserved(s) {
		return ErrReservedWord
	}
	return nil
}

// MakeCanonicalObjectName validates and returns the canonical form of an
// object/thing/room name. Idempotent: calling it again on its own output
// returns the same string and no error (spec.md §8).
func MakeCanonicalObjectName(s string) (string, error) {
	if err := validateCommon(s); err != nil {
		return "", err
	}
	return s, nil
}

// MakeCanonicalExitName splits a semicolon-separated exit name into
// segments, validates the first (the display name), and allows ANSI
// only in that first segment (spec.md §4.2).
func MakeCanonicalExitName(s string) (display string, segments []string, err error) {
	segments = strings.Split(s, ";")
	if len(segments) == 0 || segments[0] == "" {
		return "", nil, ErrEmptyName
	}
	display, err = MakeCanonicalObjectName(segments[0])
	if err != nil {
		return "", nil, err
	}
	for _, seg := range segments[1:] {
		if err := validateCommon(seg); err != nil {
			return "", nil, err
		}
	}
	return display, segments, nil
}

// MakeCanonicalPlayerName validates a player name: the object rules plus
// a length bound and an allowSpaces toggle (config-dependent).
func MakeCanonicalPlayerName(s string, limit int, allowSpaces bool) (string, error) {
	if !allowSpaces && strings.ContainsRune(s, ' ') {
		return "", ErrBadCodepoint
	}
	if err := validateCommon(s); err != nil {
		return "", err
	}
	if limit > 0 && LengthPoint(s) > limit {
		return "", ErrTooLong
	}
	return s, nil
}

// MakeCanonicalAttrName upper-cases and validates an attribute name: the
// first char plus continuation class of spec.md §3 ("Names are
// case-insensitive and must match the 'attribute name' class").
func MakeCanonicalAttrName(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyName
	}
	runes := []rune(strings.ToUpper(s))
	if !isAttrNameFirst(runes[0]) {
		return "", ErrBadFirstChar
	}
	for _, r := range runes[1:] {
		if !isAttrNameCont(r) {
			return "", ErrBadCodepoint
		}
	}
	return string(runes), nil
}

func isAttrNameFirst(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z')
}

func isAttrNameCont(r rune) bool {
	return r == '_' || r == '`' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// MatchesGlob reports whether name matches a '*'/'?' shell-style glob
// pattern, case-insensitively — grounded on the wildcard family in
// original_source/mux/src/stringutil.h.
func MatchesGlob(pattern, name string) bool {
	return matchesGlob([]rune(strings.ToLower(pattern)), []rune(strings.ToLower(name)))
}

func matchesGlob(pattern, name []rune) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	switch pattern[0] {
	case '*':
		if matchesGlob(pattern[1:], name) {
			return true
		}
		for len(name) > 0 {
			name = name[1:]
			if matchesGlob(pattern[1:], name) {
				return true
			}
		}
		return false
	case '?':
		if len(name) == 0 {
			return false
		}
		return matchesGlob(pattern[1:], name[1:])
	default:
		if len(name) == 0 || name[0] != pattern[0] {
			return false
		}
		return matchesGlob(pattern[1:], name[1:])
	}
}

// NextToken splits s on the first run of ASCII spaces, returning the
// token and the remainder with leading spaces stripped.
func NextToken(s string) (token, rest string) {
	s = strings.TrimLeft(s, " ")
	idx := strings.IndexByte(s, ' ')
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx+1:], " ")
}

// ColorStrncpy copies at most maxBytes bytes of s without splitting a
// UTF-8 codepoint, used wherever a fixed-capacity buffer (e.g. a slab
// buffer) receives evaluator output.
func ColorStrncpy(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	n := 0
	for n < len(s) {
		_, size := utf8.DecodeRuneInString(s[n:])
		if n+size > maxBytes {
			break
		}
		n += size
	}
	return s[:n]
}
