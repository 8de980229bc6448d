package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

const (
	tokenPad = "[PAD]"
	tokenUnk = "[UNK]"
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"

	maxCharsPerWord = 100
)

// WordPieceTokenizer is an uncased BERT tokenizer: basic cleanup, lowercasing, accent
// stripping and punctuation splitting, followed by greedy longest-match WordPiece.
// It matches the tokenizer shipped with all-MiniLM-L6-v2.
type WordPieceTokenizer struct {
	vocab map[string]int64
	padID int64
	unkID int64
	clsID int64
	sepID int64
}

// LoadVocab reads a vocab.txt file (one token per line, line number = token ID).
func LoadVocab(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		tokens = append(tokens, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	return NewWordPieceTokenizer(tokens)
}

// NewWordPieceTokenizer builds a tokenizer from an ordered vocabulary. The special tokens
// [PAD], [UNK], [CLS] and [SEP] must be present.
func NewWordPieceTokenizer(tokens []string) (*WordPieceTokenizer, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if _, dup := vocab[tok]; !dup {
			vocab[tok] = int64(i)
		}
	}
	t := &WordPieceTokenizer{vocab: vocab}
	for _, special := range []struct {
		name string
		dst  *int64
	}{
		{tokenPad, &t.padID},
		{tokenUnk, &t.unkID},
		{tokenCLS, &t.clsID},
		{tokenSEP, &t.sepID},
	} {
		id, ok := vocab[special.name]
		if !ok {
			return nil, fmt.Errorf("vocab is missing special token %s", special.name)
		}
		*special.dst = id
	}
	return t, nil
}

// Tokenize produces [CLS] pieces... [SEP], truncated and padded to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	pieces := t.Pieces(text)
	if len(pieces) > maxTokens-2 {
		pieces = pieces[:maxTokens-2]
	}

	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = t.padID
	}

	inputIDs[0] = t.clsID
	attentionMask[0] = 1
	pos := 1
	for _, p := range pieces {
		inputIDs[pos] = t.id(p)
		attentionMask[pos] = 1
		pos++
	}
	inputIDs[pos] = t.sepID
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// Pieces returns the WordPiece tokens for text, without special tokens.
func (t *WordPieceTokenizer) Pieces(text string) []string {
	var out []string
	for _, word := range basicTokenize(text) {
		out = append(out, t.wordPieces(word)...)
	}
	return out
}

func (t *WordPieceTokenizer) id(piece string) int64 {
	if id, ok := t.vocab[piece]; ok {
		return id
	}
	return t.unkID
}

func (t *WordPieceTokenizer) wordPieces(word string) []string {
	chars := []rune(word)
	if len(chars) > maxCharsPerWord {
		return []string{tokenUnk}
	}
	var pieces []string
	for start := 0; start < len(chars); {
		end := len(chars)
		cur := ""
		for start < end {
			sub := string(chars[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				cur = sub
				break
			}
			end--
		}
		if cur == "" {
			return []string{tokenUnk}
		}
		pieces = append(pieces, cur)
		start = end
	}
	return pieces
}

// basicTokenize cleans text, lowercases, strips accents and splits on whitespace and punctuation.
// Callers pass valid UTF-8; see checkText.
func basicTokenize(text string) []string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == 0 || r == utf8.RuneError || isControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case isCJK(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := stripAccents(strings.ToLower(b.String()))

	var words []string
	for _, field := range strings.Fields(cleaned) {
		words = append(words, splitPunctuation(field)...)
	}
	return words
}

// stripAccents decomposes to NFD and drops nonspacing marks. The result stays in NFD.
func stripAccents(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}

func splitPunctuation(word string) []string {
	var out []string
	var cur []rune
	for _, r := range word {
		if isPunctuation(r) {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			out = append(out, string(r))
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// isControl reports runes in any "C" category (Cc, Cf, Co, Cs, Cn) other than tab and newlines.
func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.In(r, unicode.C) || !isAssigned(r)
}

func isAssigned(r rune) bool {
	return unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z, unicode.C)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
