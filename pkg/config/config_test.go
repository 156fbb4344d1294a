package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIntoDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, LoadInto(v, t.TempDir()))

	assert.Equal(t, utils.DefaultClassNames, ClassNames(v))
	assert.Equal(t, utils.DefaultPredictedDir, v.GetString("directory.predicted"))

	opts, err := EvaluationOptions(v)
	require.NoError(t, err)
	assert.Equal(t, evaluate.DefaultOptions(), opts)
}

func TestLoadIntoFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "" +
		"directory:\n" +
		"  ground_truth: gt\n" +
		"  predicted: pred\n" +
		"classes: [bg, ball]\n" +
		"evaluation:\n" +
		"  mismatch: truncate\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("EVAL_EVALUATION_UNMATCHED", "fail")

	v := viper.New()
	require.NoError(t, LoadInto(v, dir))

	assert.Equal(t, []string{"bg", "ball"}, ClassNames(v))

	e, err := Evaluator(v)
	require.NoError(t, err)
	assert.Equal(t, "gt", e.GroundTruthDir)
	assert.Equal(t, "pred", e.PredictedDir)
	assert.Equal(t, evaluate.Options{Mismatch: evaluate.MismatchTruncate, Unmatched: evaluate.UnmatchedFail}, e.Options)
}

func TestLoadIntoBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("directory: [unclosed\n"), 0644))
	assert.Error(t, LoadInto(viper.New(), dir))
}

func TestClassNamesFromEnvString(t *testing.T) {
	v := viper.New()
	v.Set("classes", "background, ball ,player,")
	assert.Equal(t, []string{"background", "ball", "player"}, ClassNames(v))
}

func TestEvaluationOptionsInvalid(t *testing.T) {
	v := viper.New()
	v.Set("evaluation.mismatch", "pad")
	_, err := EvaluationOptions(v)
	assert.Error(t, err)
}

func TestCreateDirectories(t *testing.T) {
	root := t.TempDir()
	v := viper.New()
	v.Set("directory.predicted", filepath.Join(root, "a", "pred"))
	v.Set("directory.reports", filepath.Join(root, "reports"))

	require.NoError(t, CreateDirectories(v))
	for _, dir := range []string{"a/pred", "reports"} {
		info, err := os.Stat(filepath.Join(root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
