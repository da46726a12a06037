package tokenizer

import "unicode"

// Script tags a token with the writing system of its first letter. It selects
// the segmentation pipeline: scripts without word separators (CJK) go through
// the dictionary segmenter, everything else through separator splitting.
type Script uint8

const (
	ScriptOther Script = iota
	ScriptLatin
	ScriptCyrillic
	ScriptGreek
	ScriptArabic
	ScriptHebrew
	ScriptCJK
)

func (s Script) String() string {
	switch s {
	case ScriptLatin:
		return "latin"
	case ScriptCyrillic:
		return "cyrillic"
	case ScriptGreek:
		return "greek"
	case ScriptArabic:
		return "arabic"
	case ScriptHebrew:
		return "hebrew"
	case ScriptCJK:
		return "cjk"
	default:
		return "other"
	}
}

// DetectScript classifies a single rune.
func DetectScript(r rune) Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return ScriptLatin
	case unicode.Is(unicode.Cyrillic, r):
		return ScriptCyrillic
	case unicode.Is(unicode.Greek, r):
		return ScriptGreek
	case unicode.Is(unicode.Arabic, r):
		return ScriptArabic
	case unicode.Is(unicode.Hebrew, r):
		return ScriptHebrew
	case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r),
		unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
		return ScriptCJK
	default:
		return ScriptOther
	}
}

// Separated reports whether the script uses separators between words.
// Unknown scripts report true, which falls back to whitespace splitting.
func (s Script) Separated() bool {
	return s != ScriptCJK
}
