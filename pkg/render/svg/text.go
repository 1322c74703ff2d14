package svg

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

const (
	titleRunes    = 11
	subtitleRunes = 10
	rootRuneWidth = 16.0
	rootHeight    = 30.0
)

// Title returns the first line of a node label.
func Title(name string) string {
	r := []rune(name)
	if len(r) > titleRunes {
		return string(r[:titleRunes])
	}
	return name
}

// Subtitle returns the second line of a node label, elided after ten runes.
func Subtitle(name string) string {
	r := []rune(name)
	if len(r) <= titleRunes {
		return ""
	}
	r = r[titleRunes:]
	if len(r) > subtitleRunes {
		return string(r[:subtitleRunes]) + "..."
	}
	return string(r)
}

// RootWidth is the width of the root box, which grows with its label.
func RootWidth(name string) float64 {
	return float64(len([]rune(name))+2) * rootRuneWidth
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
