package text

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// ColorState packs foreground, background, and attribute bits into a
// single small integer (spec.md glossary: "Color state"). Zero is plain
// text.
type ColorState uint16

const (
	colorFgMask  ColorState = 0x0F
	colorBgMask  ColorState = 0xF0
	colorBgShift            = 4
	colorAttrBold ColorState = 1 << 8
	colorAttrUnderline ColorState = 1 << 9
	colorAttrBlink     ColorState = 1 << 10
)

// ANSI SGR codes for the low 8 foreground/background colors, matching
// the classic MUX palette order.
var ansiFg = [8]int{30, 31, 32, 33, 34, 35, 36, 37}
var ansiBg = [8]int{40, 41, 42, 43, 44, 45, 46, 47}

// Plain is the default, uncolored state.
const Plain ColorState = 0

// WithFg returns a state with the foreground color set (0-7).
func (s ColorState) WithFg(c int) ColorState {
	return (s &^ colorFgMask) | ColorState(c&0x0F)
}

// WithBg returns a state with the background color set (0-7).
func (s ColorState) WithBg(c int) ColorState {
	return (s &^ colorBgMask) | ColorState((c<<colorBgShift)&0xF0)
}

// WithBold, WithUnderline, WithBlink toggle attribute bits.
func (s ColorState) WithBold(on bool) ColorState      { return setBit(s, colorAttrBold, on) }
func (s ColorState) WithUnderline(on bool) ColorState { return setBit(s, colorAttrUnderline, on) }
func (s ColorState) WithBlink(on bool) ColorState     { return setBit(s, colorAttrBlink, on) }

func setBit(s, bit ColorState, on bool) ColorState {
	if on {
		return s | bit
	}
	return s &^ bit
}

// ANSI renders the state as an SGR escape sequence, or "" for Plain.
func (s ColorState) ANSI() string {
	if s == Plain {
		return ""
	}
	var codes []string
	if s.Has(colorAttrBold) {
		codes = append(codes, "1")
	}
	if s.Has(colorAttrUnderline) {
		codes = append(codes, "4")
	}
	if s.Has(colorAttrBlink) {
		codes = append(codes, "5")
	}
	if fg := int(s & colorFgMask); fg != 0 {
		codes = append(codes, fmt.Sprintf("%d", ansiFg[fg%8]))
	}
	if bg := int((s & colorBgMask) >> colorBgShift); bg != 0 {
		codes = append(codes, fmt.Sprintf("%d", ansiBg[bg%8]))
	}
	if len(codes) == 0 {
		return "\x1b[0m"
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// Has reports whether an attribute bit is set.
func (s ColorState) Has(bit ColorState) bool { return s&bit != 0 }

// CString is the length-tagged string of spec.md §4.2: byte length,
// codepoint length, and a parallel color-state array (one entry per
// codepoint in Text).
type CString struct {
	Text   string
	Colors []ColorState
}

// NewPlain builds a CString for uncolored text.
func NewPlain(s string) CString {
	n := utf8.RuneCountInString(s)
	return CString{Text: s, Colors: make([]ColorState, n)}
}

// ByteLen returns the byte length of the underlying text.
func (c CString) ByteLen() int { return len(c.Text) }

// CodepointLen returns the codepoint count, matching len(c.Colors).
func (c CString) CodepointLen() int { return utf8.RuneCountInString(c.Text) }

// Render emits the text with ANSI SGR escapes inserted at each color
// transition — the sink spec.md §6 calls "Color is emitted as ANSI SGR
// escape sequences computed from the internal color state."
func (c CString) Render() string {
	var b strings.Builder
	prev := Plain
	i := 0
	for _, r := range c.Text {
		var cur ColorState
		if i < len(c.Colors) {
			cur = c.Colors[i]
		}
		if cur != prev {
			if cur == Plain {
				b.WriteString("\x1b[0m")
			} else {
				b.WriteString(cur.ANSI())
			}
			prev = cur
		}
		b.WriteRune(r)
		i++
	}
	if prev != Plain {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// StripColor discards color state and returns plain text. Per spec.md
// §8's testable property, StripColor(s) == s whenever s carries no color
// (Colors all Plain), since CString never embeds escape bytes in Text
// itself.
func StripColor(c CString) string { return c.Text }

// LengthPoint returns the UTF-8 codepoint count of s (spec.md §8:
// "length_point(s) equals the UTF-8 codepoint count").
func LengthPoint(s string) int { return utf8.RuneCountInString(s) }

// TruncateDisplay truncates s to at most maxWidth display columns,
// respecting multi-byte and double-width codepoints via uniseg, and
// never splitting a rune.
func TruncateDisplay(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(s)
	var b strings.Builder
	width := 0
	for g.Next() {
		cw := g.Width()
		if width+cw > maxWidth {
			break
		}
		b.WriteString(g.Str())
		width += cw
	}
	return b.String()
}
