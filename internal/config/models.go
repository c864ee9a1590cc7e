package config

import (
	"fmt"
	"path/filepath"
)

// Model is a named whisper preset. Smaller models are faster and less
// accurate; the .en variants are English-only.
type Model string

const (
	ModelTinyEn   Model = "tiny.en"
	ModelTiny     Model = "tiny"
	ModelBaseEn   Model = "base.en"
	ModelBase     Model = "base"
	ModelSmallEn  Model = "small.en"
	ModelSmall    Model = "small"
	ModelMediumEn Model = "medium.en"
	ModelMedium   Model = "medium"
	ModelLargeV1  Model = "large-v1"
	ModelLargeV2  Model = "large-v2"
	ModelLargeV3  Model = "large-v3"
	ModelLarge    Model = "large"

	DefaultModel = ModelMediumEn
)

// Models lists every preset in size order.
var Models = []Model{
	ModelTinyEn, ModelTiny,
	ModelBaseEn, ModelBase,
	ModelSmallEn, ModelSmall,
	ModelMediumEn, ModelMedium,
	ModelLargeV1, ModelLargeV2, ModelLargeV3, ModelLarge,
}

// ParseModel validates a preset name.
func ParseModel(name string) (Model, error) {
	for _, m := range Models {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid MODEL: %q (allowed: %v)", name, Models)
}

// FileName is the ggml file whisper.cpp loads for this preset. "large" is an
// alias for the newest large model.
func (m Model) FileName() string {
	if m == ModelLarge {
		m = ModelLargeV3
	}
	return "ggml-" + string(m) + ".bin"
}

// ResolveModelPath returns MODEL_PATH when set, otherwise the preset's file
// inside MODEL_DIR.
func ResolveModelPath(cfg *Config) (string, error) {
	if cfg.ModelPath != "" {
		return cfg.ModelPath, nil
	}
	m, err := ParseModel(cfg.Model)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.ModelDir, m.FileName()), nil
}
