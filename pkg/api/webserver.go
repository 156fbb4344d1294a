package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/chenBenjamin97/detection-eval/pkg/annotation"
	"github.com/chenBenjamin97/detection-eval/pkg/evaluate"
	"github.com/chenBenjamin97/detection-eval/pkg/metrics"
	"github.com/chenBenjamin97/detection-eval/pkg/pipeline"
	"github.com/chenBenjamin97/detection-eval/pkg/render"
	"github.com/chenBenjamin97/detection-eval/pkg/report"
	"github.com/chenBenjamin97/detection-eval/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var (
	defaultAnnotate = pipeline.Annotate
	//annotate runs the producer for an uploaded video, replaced in tests
	annotate = defaultAnnotate
)

func SetRouter(m *metrics.Metrics) *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(m.Handler()))

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/evaluation", func(ctx *gin.Context) {
		result, status, err := runEvaluation(ctx, m)
		if result == nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}

		doc, jsonErr := report.JSON(result)
		if jsonErr != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": jsonErr.Error()})
			return
		}

		if cast.ToBool(ctx.Query("save")) {
			if path, err := report.WriteJSON(viper.GetString("directory.reports"), result, time.Now()); err != nil {
				logrus.Errorf("api/evaluation: Could not save report, got '%v'", err)
			} else {
				logrus.Infof("api/evaluation: report saved to '%s'", path)
			}
		}

		ctx.Data(status, "application/json; charset=utf-8", []byte(doc))
	})

	apiRoutes.GET("/evaluation/heatmap", func(ctx *gin.Context) {
		opts := render.DefaultOptions()
		if raw, ok := ctx.GetQuery("cell_size"); ok {
			size, err := cast.ToIntE(raw)
			if err != nil || !render.ValidCellSize(size) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cell_size must be an integer in [%d, %d]", render.MinCellSize, render.MaxCellSize)})
				return
			}
			opts.CellSize = size
		} else if size := viper.GetInt("render.cell_size"); size > 0 {
			opts.CellSize = render.ClampCellSize(size)
		}

		result, status, err := runEvaluation(ctx, m)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}

		img, err := render.Heatmap(result.Matrix, result.ClassNames, opts)
		if err != nil {
			img.Close()
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer img.Close()

		data, err := render.EncodePNG(img)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.Data(http.StatusOK, "image/png", data)
	})

	apiRoutes.GET("/annotations/predicted", func(ctx *gin.Context) {
		listLabelFiles(ctx, viper.GetString("directory.predicted"))
	})

	apiRoutes.GET("/annotations/ground_truth", func(ctx *gin.Context) {
		listLabelFiles(ctx, viper.GetString("directory.ground_truth"))
	})

	apiRoutes.POST("/annotate", func(ctx *gin.Context) {
		file, fHeader, err := ctx.Request.FormFile("video")
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		defer file.Close()

		uploads := viper.GetString("directory.uploads")
		if err := utils.EnsureDir(uploads); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		}

		name := filepath.Base(fHeader.Filename)
		if existNames, err := utils.ListDir(uploads); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		} else if utils.InSlice(name, existNames) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		logrus.Infof("api/annotate: Received new file: name - '%s', size - %v Bytes", name, fHeader.Size)

		videoPath := filepath.Join(uploads, name)
		if err := saveUpload(file, videoPath); err != nil {
			logrus.Errorf("api/annotate: Could not write '%s' file, got '%v'", videoPath, err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		go func() {
			if _, err := annotate(context.Background(), viper.GetViper(), videoPath, nil, m); err != nil {
				logrus.Errorf("api/annotate: Error, got '%v'", err)
			}
		}()

		ctx.JSON(http.StatusAccepted, gin.H{"video": name})
	})

	return r
}

//runEvaluation evaluates the configured directories with the policies from the query string, falling back to the configured ones
func runEvaluation(ctx *gin.Context, m *metrics.Metrics) (*evaluate.Result, int, error) {
	mismatch, err := evaluate.ParseMismatchPolicy(ctx.DefaultQuery("mismatch", viper.GetString("evaluation.mismatch")))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	unmatched, err := evaluate.ParseUnmatchedPolicy(ctx.DefaultQuery("unmatched", viper.GetString("evaluation.unmatched")))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	result, err := pipeline.Evaluate(viper.GetViper(), &evaluate.Options{Mismatch: mismatch, Unmatched: unmatched}, nil, m)
	return result, StatusFor(err), err
}

//StatusFor maps an evaluation error to an HTTP status code
func StatusFor(err error) int {
	var (
		parseErr     *evaluate.ParseError
		labelErr     *evaluate.InvalidClassLabelError
		rangeErr     *evaluate.LabelOutOfRangeError
		mismatchErr  *evaluate.FrameLabelCountMismatchError
		unmatchedErr *evaluate.UnmatchedFramesError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, evaluate.ErrEmptyEvaluationSet):
		return http.StatusUnprocessableEntity
	case errors.As(err, &parseErr), errors.As(err, &labelErr), errors.As(err, &rangeErr),
		errors.As(err, &mismatchErr), errors.As(err, &unmatchedErr):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func listLabelFiles(ctx *gin.Context, dir string) {
	names, err := utils.ListDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.Status(http.StatusInternalServerError)
		return
	}

	labels := make([]string, 0, len(names))
	for _, name := range names {
		if annotation.IsLabelFile(name) {
			labels = append(labels, name)
		}
	}

	ctx.JSON(http.StatusOK, labels)
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0444)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
