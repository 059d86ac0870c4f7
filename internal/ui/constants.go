package ui

import "github.com/mattn/go-runewidth"

// Pre-calculated string widths for commonly used strings
var (
	MusicEmojiWidth = runewidth.StringWidth("🎵 ")
	SeparatorWidth  = runewidth.StringWidth(" - ")
	EllipsisWidth   = runewidth.StringWidth("...")
)

// Progress bar glyphs
const (
	ProgressEmptyChar  = "─"
	ProgressFilledChar = "━"
)

// Lines reserved above list content in each view
const (
	homeHeaderLines  = 5
	listHeaderLines  = 4
	queueHeaderLines = 3
)
