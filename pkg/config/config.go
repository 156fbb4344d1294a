package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

//EnvPrefix is prepended to every environment override, e.g. EVAL_DIRECTORY_PREDICTED
const EnvPrefix = "EVAL"

//SetDefaults registers the value of every key that config.yaml may leave out
func SetDefaults(v *viper.Viper) {
	v.SetDefault("directory.root", "data")
	v.SetDefault("directory.ground_truth", utils.DefaultGroundTruthDir)
	v.SetDefault("directory.predicted", utils.DefaultPredictedDir)
	v.SetDefault("directory.reports", "data/reports")
	v.SetDefault("directory.uploads", "data/uploads")

	v.SetDefault("classes", utils.DefaultClassNames)

	v.SetDefault("evaluation.mismatch", string(evaluate.MismatchFail))
	v.SetDefault("evaluation.unmatched", string(evaluate.UnmatchedExclude))

	v.SetDefault("producer.backend", "dnn")
	v.SetDefault("producer.model", "models/yolov8n.onnx")
	v.SetDefault("producer.command", "")
	v.SetDefault("producer.min_box_width", utils.MinBoxWidth)
	v.SetDefault("producer.min_box_height", utils.MinBoxHeight)
	v.SetDefault("producer.confidence", 0.25)
	v.SetDefault("producer.nms", 0.45)
	v.SetDefault("producer.input_size", 640)

	v.SetDefault("render.output", "")
	v.SetDefault("render.show", false)
	v.SetDefault("render.cell_size", 100)

	v.SetDefault("http.port", "8080")
	v.SetDefault("log.level", "info")
}

//Load reads an optional .env file, then config.yaml from the working directory into the global viper instance.
//A missing config.yaml is not an error, defaults and EVAL_ environment variables still apply.
func Load() error {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("Load: environment variables loaded from .env")
	}

	return LoadInto(viper.GetViper(), ".")
}

//LoadInto configures v to read config.yaml from dir with defaults and environment overrides
func LoadInto(v *viper.Viper, dir string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logrus.Warn("Load: config.yaml not found, using defaults")
			return nil
		}
		return fmt.Errorf("Load: Error, could not read config file, got '%w'", err)
	}

	return nil
}

//SetupLogging applies log.level to the standard logrus logger
func SetupLogging(v *viper.Viper) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(v.GetString("log.level"))
	if err != nil {
		logrus.Warnf("SetupLogging: unknown log level '%s', using info", v.GetString("log.level"))
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

//ClassNames returns the label vocabulary, a comma separated env override is accepted as well as a yaml list
func ClassNames(v *viper.Viper) []string {
	var names []string
	switch raw := v.Get("classes").(type) {
	case string:
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	default:
		names = cast.ToStringSlice(raw)
	}

	if len(names) == 0 {
		return utils.DefaultClassNames
	}
	return names
}

//EvaluationOptions parses the evaluation policies
func EvaluationOptions(v *viper.Viper) (evaluate.Options, error) {
	mismatch, err := evaluate.ParseMismatchPolicy(v.GetString("evaluation.mismatch"))
	if err != nil {
		return evaluate.Options{}, err
	}

	unmatched, err := evaluate.ParseUnmatchedPolicy(v.GetString("evaluation.unmatched"))
	if err != nil {
		return evaluate.Options{}, err
	}

	return evaluate.Options{Mismatch: mismatch, Unmatched: unmatched}, nil
}

//Evaluator builds an evaluator over the configured directories
func Evaluator(v *viper.Viper) (*evaluate.Evaluator, error) {
	opts, err := EvaluationOptions(v)
	if err != nil {
		return nil, err
	}

	e := evaluate.NewEvaluator(v.GetString("directory.ground_truth"), v.GetString("directory.predicted"), ClassNames(v))
	e.Options = opts
	return e, nil
}

//CreateDirectories creates every missing directory listed under the directory key
func CreateDirectories(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		if !strings.HasPrefix(key, "directory.") {
			continue
		}
		dir := v.GetString(key)
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("CreateDirectories: Error checking '%s', got '%w'", key, err)
			}
			if err := utils.EnsureDir(dir); err != nil {
				return fmt.Errorf("CreateDirectories: Error creating '%s' directory, got '%w'", dir, err)
			}
			logrus.Infof("CreateDirectories: created '%s'", dir)
		}
	}

	return nil
}
