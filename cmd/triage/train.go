package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rajasatyajit/EmergencyTriage/config"
	"github.com/rajasatyajit/EmergencyTriage/internal/classifier"
	"github.com/rajasatyajit/EmergencyTriage/internal/guidance"
	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
)

func trainCmd() *cobra.Command {
	var corpusPath, outDir string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the classifier and write its artifacts",
		Long: `Train fits the TF-IDF vectorizer and naive Bayes model on a JSON-lines
corpus of {"text": ..., "label": ...} records and writes both artifacts
to the output directory. Without --corpus the built-in sample corpus is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.InitWithWriter("warn", "text", cmd.ErrOrStderr())
			defaults := classifierDefaults()
			if corpusPath == "" {
				corpusPath = defaults.CorpusPath
			}
			if outDir == "" {
				outDir = defaults.ArtifactDir
			}

			examples := classifier.SampleCorpus()
			if corpusPath != "" {
				var err error
				if examples, err = classifier.LoadCorpus(corpusPath); err != nil {
					return err
				}
			}

			model, err := classifier.Train(examples)
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			if err := model.Save(outDir); err != nil {
				return err
			}

			cmd.Printf("Trained on %d examples (%s); artifacts written to %s\n",
				len(examples), strings.Join(model.Classes(), ", "), outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "JSON-lines training corpus (default: $CLASSIFIER_CORPUS_PATH, else built-in sample)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for classifier artifacts (default: $CLASSIFIER_ARTIFACT_DIR)")
	return cmd
}

func classifyCmd() *cobra.Command {
	var artifactDir, guidancePath string

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify an emergency description and print its guidance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.InitWithWriter("warn", "text", cmd.ErrOrStderr())
			if artifactDir == "" {
				artifactDir = classifierDefaults().ArtifactDir
			}

			model, err := classifier.LoadOrTrain(artifactDir)
			if err != nil {
				return err
			}
			registry, err := guidance.LoadOrDefault(guidancePath)
			if err != nil {
				return err
			}

			p := model.Predict(strings.Join(args, " "))
			cmd.Printf("Category: %s\n", p.Category)
			printScores(cmd, p.Scores)

			bundle, ok := registry.For(p.Category)
			if !ok {
				cmd.Println("No guidance available for this category.")
				return nil
			}
			printSection(cmd, "Precautions", bundle.Precautions)
			printSection(cmd, "Do's", bundle.Dos)
			printSection(cmd, "Don'ts", bundle.Donts)
			return nil
		},
	}

	cmd.Flags().StringVar(&artifactDir, "artifacts", "", "Directory holding classifier artifacts (default: $CLASSIFIER_ARTIFACT_DIR)")
	cmd.Flags().StringVar(&guidancePath, "guidance", "", "YAML guidance table (default: built-in)")
	return cmd
}

// classifierDefaults reads the classifier section of the environment
// configuration, tolerating problems in unrelated sections
func classifierDefaults() config.ClassifierConfig {
	cfg, err := config.Load()
	if err != nil {
		return config.ClassifierConfig{ArtifactDir: "artifacts"}
	}
	return cfg.Classifier
}

func printScores(cmd *cobra.Command, scores map[string]float64) {
	labels := make([]string, 0, len(scores))
	for l := range scores {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		cmd.Printf("  %-10s %.4f\n", l, scores[l])
	}
}

func printSection(cmd *cobra.Command, title string, items []string) {
	cmd.Printf("\n%s:\n", title)
	for _, item := range items {
		cmd.Printf("  - %s\n", item)
	}
}
