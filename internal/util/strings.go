package util

import "unicode/utf16"

// RuneOffset converts an editor position (zero-based line, column in UTF-16
// code units) into a rune offset into text. Columns past the end of a line
// clamp to the line end; lines past the end clamp to the end of text.
func RuneOffset(text string, line, character int) int {
	offset := 0
	curLine := 0
	col := 0
	for _, r := range text {
		if curLine == line {
			if r == '\n' || col >= character {
				return offset
			}
			col += utf16.RuneLen(r)
			if col > character {
				// inside a surrogate pair
				return offset
			}
		} else if r == '\n' {
			curLine++
		}
		offset++
	}
	return offset
}

// Position is the inverse of RuneOffset.
func Position(text string, offset int) (line, character int) {
	i := 0
	for _, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			character = 0
		} else {
			character += utf16.RuneLen(r)
		}
		i++
	}
	return line, character
}
