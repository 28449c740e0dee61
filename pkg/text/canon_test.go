package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCanonicalObjectNameRejectsBadFirstChar(t *testing.T) {
	for _, s := range []string{"*foo", "!bar", "#1", " leading"} {
		_, err := MakeCanonicalObjectName(s)
		assert.Equal(t, ErrBadFirstChar, err, "MakeCanonicalObjectName(%q)", s)
	}
}

func TestMakeCanonicalObjectNameIsIdempotent(t *testing.T) {
	s, err := MakeCanonicalObjectName("Rusty Sword")
	require.NoError(t, err)
	s2, err := MakeCanonicalObjectName(s)
	require.NoError(t, err)
	assert.Equal(t, s, s2, "not idempotent")
}

func TestMakeCanonicalObjectNameRejectsTrailingSpace(t *testing.T) {
	_, err := MakeCanonicalObjectName("Rusty Sword ")
	assert.Equal(t, ErrTrailingSpace, err)
}

func TestMakeCanonicalObjectNameRejectsReservedWord(t *testing.T) {
	for _, s := range []string{"me", "ME", "Home", "here"} {
		_, err := MakeCanonicalObjectName(s)
		assert.Equal(t, ErrReservedWord, err, "MakeCanonicalObjectName(%q)", s)
	}
}

func TestMakeCanonicalExitNameSplitsSegments(t *testing.T) {
	display, segments, err := MakeCanonicalExitName("North;n;no")
	require.NoError(t, err)
	assert.Equal(t, "North", display)
	if assert.Len(t, segments, 3) {
		assert.Equal(t, "n", segments[1])
		assert.Equal(t, "no", segments[2])
	}
}

func TestMakeCanonicalPlayerNameEnforcesLimit(t *testing.T) {
	_, err := MakeCanonicalPlayerName("Wizard", 4, false)
	assert.Equal(t, ErrTooLong, err)
	_, err = MakeCanonicalPlayerName("Wiz", 4, false)
	assert.NoError(t, err)
}

func TestMakeCanonicalPlayerNameRejectsSpacesUnlessAllowed(t *testing.T) {
	_, err := MakeCanonicalPlayerName("John Doe", 0, false)
	assert.Equal(t, ErrBadCodepoint, err)
	_, err = MakeCanonicalPlayerName("John Doe", 0, true)
	assert.NoError(t, err, "unexpected error with spaces allowed")
}

func TestMakeCanonicalAttrNameUppercasesAndValidates(t *testing.T) {
	got, err := MakeCanonicalAttrName("my_attr1")
	require.NoError(t, err)
	assert.Equal(t, "MY_ATTR1", got)

	_, err = MakeCanonicalAttrName("1BAD")
	assert.Equal(t, ErrBadFirstChar, err)

	_, err = MakeCanonicalAttrName("BAD-NAME")
	assert.Equal(t, ErrBadCodepoint, err)
}

func TestMatchesGlob(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*sword*", "Rusty Sword of Doom", true},
		{"*Sword", "Rusty Sword", true},
		{"Rusty*", "Rusty Sword", true},
		{"R?sty*", "Rusty Sword", true},
		{"*axe*", "Rusty Sword", false},
		{"*", "", true},
		{"", "x", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MatchesGlob(c.pattern, c.name), "MatchesGlob(%q, %q)", c.pattern, c.name)
	}
}

func TestNextToken(t *testing.T) {
	token, rest := NextToken("  say hello world")
	assert.Equal(t, "say", token)
	assert.Equal(t, "hello world", rest)

	token, rest = NextToken("solo")
	assert.Equal(t, "solo", token)
	assert.Equal(t, "", rest)
}

func TestColorStrncpyDoesNotSplitRune(t *testing.T) {
	s := "héllo" // 'é' is 2 bytes (U+00E9)
	assert.Equal(t, "h", ColorStrncpy(s, 2))
	assert.Equal(t, "hé", ColorStrncpy(s, 3))
}

func TestColorStrncpyShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hi", ColorStrncpy("hi", 10))
}
