package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorStateANSIPlain(t *testing.T) {
	assert.Equal(t, "", Plain.ANSI())
}

func TestColorStateANSIIncludesFgAndBold(t *testing.T) {
	s := Plain.WithFg(1).WithBold(true)
	assert.Equal(t, "\x1b[1;31m", s.ANSI())
}

func TestColorStateHas(t *testing.T) {
	s := Plain.WithUnderline(true)
	assert.True(t, s.Has(colorAttrUnderline), "expected underline bit set")
	assert.False(t, s.Has(colorAttrBold), "did not expect bold bit set")
}

func TestNewPlainMatchesColorsLength(t *testing.T) {
	c := NewPlain("héllo")
	assert.Len(t, c.Colors, c.CodepointLen())
	assert.Equal(t, len("héllo"), c.ByteLen())
}

func TestStripColorReturnsPlainText(t *testing.T) {
	c := NewPlain("no color here")
	assert.Equal(t, c.Text, StripColor(c))
}

func TestRenderInsertsEscapesAtTransitions(t *testing.T) {
	c := NewPlain("ab")
	c.Colors[1] = Plain.WithFg(2)
	assert.Equal(t, "a\x1b[32mb\x1b[0m", c.Render())
}

func TestLengthPointCountsCodepoints(t *testing.T) {
	assert.Equal(t, 5, LengthPoint("héllo"))
}

func TestTruncateDisplayRespectsWidth(t *testing.T) {
	assert.Equal(t, "hello", TruncateDisplay("hello world", 5))
}

func TestTruncateDisplayZeroWidth(t *testing.T) {
	assert.Equal(t, "", TruncateDisplay("hello", 0))
}
