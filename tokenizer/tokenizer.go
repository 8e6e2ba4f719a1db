// Package tokenizer turns raw text into the searchable token stream shared
// by ingestion and querying.
//
// ═══════════════════════════════════════════════════════════════════════════════
// ANALYSIS PIPELINE
// ═══════════════════════════════════════════════════════════════════════════════
//  1. Segmentation  → split text into maximal runs of letters/digits
//  2. Lowercasing   → unicode.ToLower per scalar (simple lowercase
//     mapping; full Unicode case folding is not applied)
//  3. Stop-word removal → drop common words, without advancing word_index
//
// Unlike a general-purpose analyzer, this tokenizer performs no stemming:
// the token emitted for "running" is "running", not "run". An indexed word
// must be retrievable by its own lowercase form, and the typo-tolerant DFA
// lookup in the query engine already absorbs minor morphological drift, so
// stemming would only ever cost precision here.
//
// EXAMPLE:
//
//	Input:  "The Quick Brown Fox!"
//	Output: {quick,0,4,5} {brown,1,10,5} {fox,2,16,3}
//	("The" is dropped as a stop-word and never gets a word_index)
//
// ═══════════════════════════════════════════════════════════════════════════════
package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// MaxTokenBytes is the maximum length, in UTF-8 bytes, of an emitted token.
// Longer runs are truncated at a rune boundary.
const MaxTokenBytes = 64

// Token is one emitted occurrence: a lowercase token and its coordinates
// within the original text.
type Token struct {
	Text      string // lowercase UTF-8 form, ≤ MaxTokenBytes
	WordIndex int    // zero-based ordinal among non-stop-word tokens
	CharIndex int    // starting Unicode scalar offset in the source text
	CharLen   int    // length in Unicode scalars
}

// StopWords is a set of tokens to drop at both index and query time.
type StopWords map[string]struct{}

// NewStopWords builds a StopWords set from a list of words. Words are
// lowercased on the way in, since membership is only ever tested against
// the tokenizer's lowercase output.
func NewStopWords(words []string) StopWords {
	set := make(StopWords, len(words))
	for _, w := range words {
		set[lowerASCIIOrUnicode(w)] = struct{}{}
	}
	return set
}

// Contains reports whether word is a stop-word. A nil set contains nothing.
func (s StopWords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s[word]
	return ok
}

// Tokenize lazily analyzes text and invokes emit for each retained token in
// order. Returning an error from emit stops iteration early and Tokenize
// returns that error; emit is never called again after that point.
//
// Segmentation treats any run of unicode.IsLetter/unicode.IsNumber scalars
// as one token; everything else is a separator. Positions are tracked in
// runes (not bytes) so CharIndex/CharLen land in Unicode scalar units.
func Tokenize(text string, stop StopWords, emit func(Token) error) error {
	wordIndex := 0
	charIndex := 0

	runStart := -1 // scalar offset where the current run began, -1 if not in a run
	runStartByte := 0
	runLen := 0 // scalar length of the current run so far

	flush := func(endByte int) error {
		if runStart < 0 {
			return nil
		}
		raw := text[runStartByte:endByte]
		lower := lowerASCIIOrUnicode(raw)
		truncated := truncateUTF8(lower, MaxTokenBytes)
		if truncated == "" {
			runStart = -1
			runLen = 0
			return nil
		}
		if !stop.Contains(truncated) {
			tok := Token{
				Text:      truncated,
				WordIndex: wordIndex,
				CharIndex: runStart,
				CharLen:   runLen,
			}
			wordIndex++
			if err := emit(tok); err != nil {
				return err
			}
		}
		runStart = -1
		runLen = 0
		return nil
	}

	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			if runStart < 0 {
				runStart = charIndex
				runStartByte = i
				runLen = 0
			}
			runLen++
		} else {
			if err := flush(i); err != nil {
				return err
			}
		}
		charIndex++
	}
	return flush(len(text))
}

// Collect runs Tokenize and returns the full token slice; a convenience for
// callers (the query engine, tests) that don't need streaming.
func Collect(text string, stop StopWords) []Token {
	var out []Token
	// The emit closure never returns an error, so Tokenize cannot fail here.
	_ = Tokenize(text, stop, func(t Token) error {
		out = append(out, t)
		return nil
	})
	return out
}

func lowerASCIIOrUnicode(s string) string {
	isASCII := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			isASCII = false
			break
		}
	}
	if isASCII {
		buf := []byte(s)
		for i, c := range buf {
			if 'A' <= c && c <= 'Z' {
				buf[i] = c + ('a' - 'A')
			}
		}
		return string(buf)
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

// truncateUTF8 cuts s to at most maxBytes bytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}
