package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Tokens are runs of two or more letters, digits, marks or underscores
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Tokenize lower-cases text and splits it into vocabulary tokens
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Vector is a sparse feature vector keyed by vocabulary index
type Vector map[int]float64

// Vectorizer turns text into L2-normalised TF-IDF vectors over a fixed vocabulary
type Vectorizer struct {
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`

	index map[string]int
}

// FitVectorizer learns the vocabulary and smoothed IDF weights from docs
func FitVectorizer(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	vocab := make([]string, 0, len(df))
	for tok := range df {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, tok := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}

	v := &Vectorizer{Vocabulary: vocab, IDF: idf}
	v.buildIndex()
	return v
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Vocabulary))
	for i, tok := range v.Vocabulary {
		v.index[tok] = i
	}
}

// Features returns the size of the vocabulary
func (v *Vectorizer) Features() int {
	return len(v.Vocabulary)
}

// Transform vectorizes text. Unknown tokens are ignored, so text sharing
// nothing with the vocabulary yields an empty vector.
func (v *Vectorizer) Transform(text string) Vector {
	if v.index == nil {
		v.buildIndex()
	}

	counts := make(map[int]float64)
	for _, tok := range Tokenize(text) {
		if i, ok := v.index[tok]; ok {
			counts[i]++
		}
	}

	vec := Vector(counts)
	var norm float64
	for _, i := range vec.Indices() {
		w := counts[i] * v.IDF[i]
		counts[i] = w
		norm += w * w
	}
	if norm == 0 {
		return Vector{}
	}
	norm = math.Sqrt(norm)
	for i := range counts {
		counts[i] /= norm
	}
	return vec
}

// Indices returns the feature indices of v in ascending order. Sums over a
// vector go through it so float results do not depend on map order.
func (v Vector) Indices() []int {
	idx := make([]int, 0, len(v))
	for i := range v {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
