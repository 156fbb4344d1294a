package pipeline

import (
	"errors"
	"io"

	"github.com/chenBenjamin97/detection-eval/pkg/config"
	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/metrics"
	"github.com/spf13/viper"
)

//Evaluate runs the configured evaluator once. opts overrides the configured policies when not nil, progress and m may be nil.
//As with evaluate.Evaluator.Run, an empty evaluation set returns both the result and ErrEmptyEvaluationSet.
func Evaluate(v *viper.Viper, opts *evaluate.Options, progress io.Writer, m *metrics.Metrics) (*evaluate.Result, error) {
	e, err := config.Evaluator(v)
	if err != nil {
		if m != nil {
			m.ObserveEvaluation(nil, err)
		}
		return nil, err
	}
	if opts != nil {
		e.Options = *opts
	}
	e.Progress = progress

	result, err := e.Run()
	if m != nil {
		m.ObserveEvaluation(result, err)
	}
	if err != nil && !errors.Is(err, evaluate.ErrEmptyEvaluationSet) {
		return nil, err
	}

	return result, err
}
