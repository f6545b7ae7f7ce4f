package models

// GuidanceBundle is the static advice shown for an emergency category
type GuidanceBundle struct {
	Precautions []string `json:"precautions" yaml:"precautions"`
	Dos         []string `json:"dos" yaml:"dos"`
	Donts       []string `json:"donts" yaml:"donts"`
}
