package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// Range is an inclusive code point range of the emoji table.
type Range struct {
	Lo, Hi rune
}

// ParseRange reads "1F600-1F64F" or a single code point such as "2B50".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	lo, hi, found := strings.Cut(s, "-")
	l, err := parseCodePoint(lo)
	if err != nil {
		return Range{}, fmt.Errorf("emoji range %q: %w", s, err)
	}
	h := l
	if found {
		if h, err = parseCodePoint(hi); err != nil {
			return Range{}, fmt.Errorf("emoji range %q: %w", s, err)
		}
	}
	if h < l {
		return Range{}, fmt.Errorf("emoji range %q: upper bound below lower bound", s)
	}
	return Range{Lo: l, Hi: h}, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "U+"), "u+")
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	if n > 0x10FFFF {
		return 0, fmt.Errorf("code point %X out of range", n)
	}
	return rune(n), nil
}

// UnmarshalText lets ranges be written as strings in TOML.
func (r *Range) UnmarshalText(text []byte) error {
	v, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return fmt.Sprintf("%X", r.Lo)
	}
	return fmt.Sprintf("%X-%X", r.Lo, r.Hi)
}

func DefaultEmojiRanges() []Range {
	return []Range{
		{0x1F600, 0x1F64F}, // emoticons
		{0x1F300, 0x1F5FF}, // symbols & pictographs
		{0x1F680, 0x1F6FF}, // transport & map
		{0x1F1E6, 0x1F1FF}, // regional indicators
		{0x2600, 0x26FF},   // misc symbols
		{0x2700, 0x27BF},   // dingbats
		{0x1F900, 0x1F9FF}, // supplemental symbols
		{0x1FA70, 0x1FAFF}, // extended-A
		{0x2B50, 0x2B50},
		{0x2B55, 0x2B55},
		{0x231A, 0x231B},
		{0x23E9, 0x23F3},
	}
}

type emojiTable []Range

func (t emojiTable) contains(r rune) bool {
	for _, rg := range t {
		if r >= rg.Lo && r <= rg.Hi {
			return true
		}
	}
	return false
}

// extract returns the emoji graphemes of s and the number of emoji code
// points inside them. A ZWJ family is one key but three code points, a
// skin-tone variant is one key and two code points. Variation selectors are
// dropped from the key.
func (t emojiTable) extract(s string) ([]string, int) {
	var out []string
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		runes := gr.Runes()
		if len(runes) == 0 || !t.contains(runes[0]) {
			continue
		}
		for _, r := range runes {
			if t.contains(r) {
				n++
			}
		}
		out = append(out, strings.ReplaceAll(gr.Str(), "\ufe0f", ""))
	}
	return out, n
}
