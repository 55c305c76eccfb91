package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nopgae/usedcararoundme/pkg/data"
	"github.com/nopgae/usedcararoundme/pkg/model"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
)

// fallbackFeatures is how many importances a prediction reports when the
// model info carries none.
const fallbackFeatures = 5

// RespondWithError writes an APIError body with the given status.
func RespondWithError(c *gin.Context, httpStatus int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(httpStatus, APIError{Code: code, Message: message, Details: details})
}

func (s *Server) root(c *gin.Context) {
	status := "not loaded"
	if s.Snapshot().Model != nil {
		status = "loaded"
	}
	c.JSON(http.StatusOK, RootResponse{
		Message:     "Welcome to the Car Price Prediction API",
		Health:      "ok",
		ModelStatus: status,
	})
}

func (s *Server) predict(c *gin.Context) {
	snap := s.Snapshot()
	if snap.Model == nil || snap.Preprocessor == nil || snap.Info == nil {
		RespondWithError(c, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, "Model is not available", nil)
		return
	}

	var spec CarSpecification
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "Invalid car specification", err.Error())
		return
	}

	processed, err := snap.Preprocessor.Preprocess([]data.Record{spec.Record()}, pipeline.Inference)
	if err != nil {
		s.preprocessError(c, err)
		return
	}
	X, err := snap.Preprocessor.Schema.Matrix(processed, snap.Info.FeatureNames)
	if err != nil {
		s.logger.Error("feature mismatch between preprocessor and model", "error", err)
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternalServerError, "Prediction failed", err.Error())
		return
	}
	price := snap.Model.Predict(X)[0]
	if math.IsNaN(price) || math.IsInf(price, 0) {
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternalServerError, "Prediction failed", "non-finite prediction")
		return
	}

	info := snap.Info
	c.JSON(http.StatusOK, PredictionResponse{
		PredictedPrice:     price,
		ConfidenceInterval: [2]float64{math.Max(0, price-2*info.MAE), price + 2*info.MAE},
		ImportantFeatures:  importantFeatures(snap),
		ModelPerformance:   ModelPerformance{R2Score: info.R2Score, RMSE: info.RMSE, MAE: info.MAE},
	})
}

func (s *Server) preprocessError(c *gin.Context, err error) {
	var (
		missing *pipeline.MissingColumnError
		unknown *pipeline.UnknownCategoryError
	)
	switch {
	case errors.As(err, &unknown):
		RespondWithError(c, http.StatusUnprocessableEntity, ErrorCodeUnknownCategory,
			fmt.Sprintf("Unknown %s %q", unknown.Column, unknown.Value),
			gin.H{"column": unknown.Column, "value": unknown.Value, "known": unknown.Known})
	case errors.As(err, &missing):
		RespondWithError(c, http.StatusBadRequest, ErrorCodeMissingRequiredField,
			fmt.Sprintf("Missing required field %s", missing.Column), gin.H{"column": missing.Column})
	default:
		s.logger.Error("preprocessing failed", "error", err)
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternalServerError, "Prediction failed", err.Error())
	}
}

func importantFeatures(snap *Snapshot) map[string]float64 {
	top := snap.Info.TopFeatures
	if len(top) == 0 {
		top = model.TopFeatures(snap.Info.FeatureNames, snap.Model.Importances(), fallbackFeatures)
	}
	out := make(map[string]float64, len(top))
	for _, f := range top {
		out[f.Name] = f.Importance
	}
	return out
}

func (s *Server) modelInfo(c *gin.Context) {
	snap := s.Snapshot()
	if snap.Model == nil || snap.Info == nil {
		RespondWithError(c, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, "Model is not available", nil)
		return
	}
	info := snap.Info
	top := make([]FeatureImportance, len(info.TopFeatures))
	for i, f := range info.TopFeatures {
		top[i] = FeatureImportance{Name: f.Name, Importance: f.Importance}
	}
	c.JSON(http.StatusOK, ModelInfoResponse{
		ModelType:    info.ModelType,
		R2Score:      info.R2Score,
		FeatureCount: info.NumFeatures,
		TrainingDate: info.TrainingDate.Format(time.RFC3339),
		TopFeatures:  top,
	})
}

func (s *Server) health(c *gin.Context) {
	snap := s.Snapshot()
	c.JSON(http.StatusOK, HealthResponse{
		Status:             "healthy",
		Timestamp:          time.Now().Format(time.RFC3339Nano),
		ModelLoaded:        snap.Model != nil,
		PreprocessorLoaded: snap.Preprocessor != nil,
	})
}

func (s *Server) options(c *gin.Context) {
	snap := s.Snapshot()
	if snap.Preprocessor == nil {
		RespondWithError(c, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, "Preprocessor not properly initialized", nil)
		return
	}
	options := make(map[string][]string)
	for _, col := range snap.Preprocessor.Schema.Categorical {
		classes, err := snap.Preprocessor.KnownCategories(col)
		if err != nil {
			continue
		}
		options[col] = classes
	}
	c.JSON(http.StatusOK, OptionsResponse{Options: options})
}
