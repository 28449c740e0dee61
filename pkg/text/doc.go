// Package text implements the UTF-8 / color string layer of spec.md
// §4.2: a string type reporting both byte and codepoint length plus a
// parallel per-codepoint color-state array, table-driven
// codepoint classifiers, and the object/exit/player name canonicalizers.
//
// Display-width-aware truncation is delegated to
// github.com/rivo/uniseg, the grapheme-cluster/width library already in
// the example pack; codepoint *counting* (as opposed to display width)
// uses unicode/utf8 directly since that is exactly what
// utf8.RuneCountInString computes and no third-party library improves on
// it for that narrow job (see DESIGN.md).
package text
