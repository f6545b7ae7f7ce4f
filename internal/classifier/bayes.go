package classifier

import (
	"fmt"
	"math"
	"sort"
)

// NaiveBayes is a multinomial Naive Bayes discriminator with additive smoothing
type NaiveBayes struct {
	Classes        []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	Alpha          float64     `json:"alpha"`
}

// FitNaiveBayes trains on feature vectors X with labels y over nFeatures dimensions
func FitNaiveBayes(X []Vector, y []string, nFeatures int, alpha float64) (*NaiveBayes, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("got %d vectors and %d labels", len(X), len(y))
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("no training examples")
	}

	classIndex := make(map[string]int)
	for _, label := range y {
		classIndex[label] = 0
	}
	classes := make([]string, 0, len(classIndex))
	for label := range classIndex {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	for i, label := range classes {
		classIndex[label] = i
	}

	classCount := make([]float64, len(classes))
	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, nFeatures)
	}
	for n, x := range X {
		c := classIndex[y[n]]
		classCount[c]++
		for _, f := range x.Indices() {
			featureCount[c][f] += x[f]
		}
	}

	nb := &NaiveBayes{
		Classes:        classes,
		ClassLogPrior:  make([]float64, len(classes)),
		FeatureLogProb: make([][]float64, len(classes)),
		Alpha:          alpha,
	}
	total := float64(len(y))
	for c := range classes {
		nb.ClassLogPrior[c] = math.Log(classCount[c] / total)

		var sum float64
		for _, fc := range featureCount[c] {
			sum += fc + alpha
		}
		nb.FeatureLogProb[c] = make([]float64, nFeatures)
		for f, fc := range featureCount[c] {
			nb.FeatureLogProb[c][f] = math.Log((fc + alpha) / sum)
		}
	}
	return nb, nil
}

// Scores returns the joint log-likelihood of x for every class, in Classes order
func (nb *NaiveBayes) Scores(x Vector) []float64 {
	scores := make([]float64, len(nb.Classes))
	idx := x.Indices()
	for c := range nb.Classes {
		s := nb.ClassLogPrior[c]
		for _, f := range idx {
			if f < len(nb.FeatureLogProb[c]) {
				s += x[f] * nb.FeatureLogProb[c][f]
			}
		}
		scores[c] = s
	}
	return scores
}

// Predict returns the highest scoring class; ties go to the earliest class
func (nb *NaiveBayes) Predict(x Vector) string {
	scores := nb.Scores(x)
	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] {
			best = c
		}
	}
	return nb.Classes[best]
}
