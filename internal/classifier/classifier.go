// Package classifier maps free-text emergency descriptions to a category
// with a TF-IDF vectorizer feeding a multinomial Naive Bayes model.
//
// A trained Model is immutable and safe for concurrent use.
package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/rajasatyajit/EmergencyTriage/internal/errors"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Artifact file names inside the artifact directory
const (
	VectorizerFile = "vectorizer.json"
	ModelFile      = "model.json"
)

// DefaultAlpha is the Laplace smoothing applied during training
const DefaultAlpha = 1.0

// Model is a trained vectorizer + discriminator pair
type Model struct {
	vectorizer *Vectorizer
	bayes      *NaiveBayes
}

// Prediction exposes the raw label and per-class scores behind a classification
type Prediction struct {
	Label    string             `json:"label"`
	Category models.Category    `json:"category"`
	Scores   map[string]float64 `json:"scores"`
}

// Train fits a new model on the labeled examples
func Train(examples []Example) (*Model, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("train: empty corpus")
	}

	docs := make([]string, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		docs[i] = ex.Text
		labels[i] = ex.Label
	}

	vec := FitVectorizer(docs)
	X := make([]Vector, len(docs))
	for i, doc := range docs {
		X[i] = vec.Transform(doc)
	}

	nb, err := FitNaiveBayes(X, labels, vec.Features(), DefaultAlpha)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	logger.Debug("Classifier trained",
		"examples", len(examples),
		"features", vec.Features(),
		"classes", nb.Classes,
	)
	return &Model{vectorizer: vec, bayes: nb}, nil
}

// Classes returns the training label set
func (m *Model) Classes() []string {
	out := make([]string, len(m.bayes.Classes))
	copy(out, m.bayes.Classes)
	return out
}

// Classify returns exactly one category for text. Empty or unrecognised
// text falls back to the class with the highest prior; callers that care
// must reject empty input themselves.
func (m *Model) Classify(text string) models.Category {
	category := models.ParseCategory(m.bayes.Predict(m.vectorizer.Transform(text)))
	metrics.RecordClassification(string(category))
	return category
}

// Predict is Classify with diagnostics
func (m *Model) Predict(text string) Prediction {
	x := m.vectorizer.Transform(text)
	scores := m.bayes.Scores(x)
	label := m.bayes.Predict(x)

	p := Prediction{
		Label:    label,
		Category: models.ParseCategory(label),
		Scores:   make(map[string]float64, len(scores)),
	}
	for i, class := range m.bayes.Classes {
		p.Scores[class] = scores[i]
	}
	return p
}

// Save writes both artifacts into dir, creating it if needed
func (m *Model) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.ArtifactError{Path: dir, Err: err}
	}
	if err := writeJSON(filepath.Join(dir, VectorizerFile), m.vectorizer); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ModelFile), m.bayes)
}

// Load reads a model previously written by Save
func Load(dir string) (*Model, error) {
	var vec Vectorizer
	if err := readJSON(filepath.Join(dir, VectorizerFile), &vec); err != nil {
		return nil, err
	}
	var nb NaiveBayes
	if err := readJSON(filepath.Join(dir, ModelFile), &nb); err != nil {
		return nil, err
	}

	if len(vec.Vocabulary) != len(vec.IDF) {
		return nil, apperrors.ArtifactError{
			Path: filepath.Join(dir, VectorizerFile),
			Err:  fmt.Errorf("vocabulary has %d terms but idf has %d", len(vec.Vocabulary), len(vec.IDF)),
		}
	}
	if len(nb.Classes) == 0 || len(nb.ClassLogPrior) != len(nb.Classes) || len(nb.FeatureLogProb) != len(nb.Classes) {
		return nil, apperrors.ArtifactError{Path: filepath.Join(dir, ModelFile), Err: fmt.Errorf("inconsistent class tables")}
	}
	for _, row := range nb.FeatureLogProb {
		if len(row) != len(vec.Vocabulary) {
			return nil, apperrors.ArtifactError{
				Path: filepath.Join(dir, ModelFile),
				Err:  fmt.Errorf("model has %d features, vectorizer has %d", len(row), len(vec.Vocabulary)),
			}
		}
	}

	vec.buildIndex()
	return &Model{vectorizer: &vec, bayes: &nb}, nil
}

// LoadOrTrain loads artifacts from dir, falling back to training on the
// sample corpus when they are missing
func LoadOrTrain(dir string) (*Model, error) {
	m, err := Load(dir)
	if err == nil {
		logger.Info("Classifier artifacts loaded", "dir", dir, "classes", m.bayes.Classes)
		return m, nil
	}
	if !apperrors.Is(err, apperrors.ErrArtifactNotFound) {
		return nil, err
	}

	logger.Warn("Classifier artifacts missing; training on sample corpus", "dir", dir)
	return Train(SampleCorpus())
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.ArtifactError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.ArtifactError{Path: path, Err: err}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.ArtifactError{Path: path, Err: apperrors.ErrArtifactNotFound}
		}
		return apperrors.ArtifactError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.ArtifactError{Path: path, Err: err}
	}
	return nil
}
