package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"alpha", "beta", "gam", "##ma", "!", "cafe", "delta", ",",
}

func newTestTokenizer(t *testing.T) *WordPieceTokenizer {
	t.Helper()
	tok, err := NewWordPieceTokenizer(testVocab)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestWordPieceTokenizer_Pieces(t *testing.T) {
	tok := newTestTokenizer(t)
	tests := []struct {
		in   string
		want []string
	}{
		{"alpha beta", []string{"alpha", "beta"}},
		{"Alpha BÉTA", []string{"alpha", "beta"}},
		{"gamma!", []string{"gam", "##ma", "!"}},
		{"café,delta", []string{"cafe", ",", "delta"}},
		{"zeta", []string{"[UNK]"}},
		{"  \n\t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := tok.Pieces(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Pieces(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBasicTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"hangul stays decomposed", "한국", []string{"\u1112\u1161\u11ab\u1100\u116e\u11a8"}},
		{"accent removed", "Éclair", []string{"eclair"}},
		{"private use dropped", "a\ue000b", []string{"ab"}},
		{"unassigned dropped", "a\u0378b", []string{"ab"}},
		{"format char dropped", "a\u200bb", []string{"ab"}},
		{"cjk split", "ab中c", []string{"ab", "中", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basicTokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("basicTokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWordPieceTokenizer_Tokenize(t *testing.T) {
	tok := newTestTokenizer(t)
	ids, mask, types := tok.Tokenize("alpha gamma", 8)
	wantIDs := []int64{2, 4, 6, 7, 3, 0, 0, 0}
	wantMask := []int64{1, 1, 1, 1, 1, 0, 0, 0}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("ids = %v, want %v", ids, wantIDs)
	}
	if !reflect.DeepEqual(mask, wantMask) {
		t.Errorf("mask = %v, want %v", mask, wantMask)
	}
	if len(types) != 8 {
		t.Errorf("len(types) = %d", len(types))
	}
}

func TestWordPieceTokenizer_Truncates(t *testing.T) {
	tok := newTestTokenizer(t)
	ids, mask, _ := tok.Tokenize(strings.Repeat("alpha ", 20), 5)
	if len(ids) != 5 {
		t.Fatalf("len(ids) = %d", len(ids))
	}
	if ids[0] != 2 || ids[4] != 3 {
		t.Errorf("expected [CLS] ... [SEP], got %v", ids)
	}
	for i, m := range mask {
		if m != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, m)
		}
	}
}

func TestNewWordPieceTokenizer_missingSpecial(t *testing.T) {
	if _, err := NewWordPieceTokenizer([]string{"[PAD]", "[UNK]", "a"}); err == nil {
		t.Error("expected error for vocab without [CLS]/[SEP]")
	}
}

func TestLoadVocab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(testVocab, "\r\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadVocab(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := tok.Pieces("beta"); !reflect.DeepEqual(got, []string{"beta"}) {
		t.Errorf("Pieces = %v", got)
	}
	if _, err := LoadVocab(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing vocab")
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 0,
		3, 0,
		100, 100, // masked out
	}
	got := MeanPool(hidden, []int64{1, 1, 0}, 2)
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("MeanPool = %v, want [1 0]", got)
	}
}
