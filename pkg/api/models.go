package api

import (
	"github.com/nopgae/usedcararoundme/pkg/data"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrorCodeInternalServerError  = "INTERNAL_SERVER_ERROR"
	ErrorCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	ErrorCodeValidation           = "VALIDATION_ERROR"
	ErrorCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrorCodeUnknownCategory      = "UNKNOWN_CATEGORY"
)

// CarSpecification is the prediction request. Numeric fields are pointers
// so an explicit zero is distinguishable from an absent field.
type CarSpecification struct {
	Fueltype         string   `json:"fueltype" binding:"required"`
	Aspiration       string   `json:"aspiration" binding:"required"`
	Doornumber       string   `json:"doornumber" binding:"required"`
	Carbody          string   `json:"carbody" binding:"required"`
	Drivewheel       string   `json:"drivewheel" binding:"required"`
	Enginelocation   string   `json:"enginelocation" binding:"required"`
	Wheelbase        *float64 `json:"wheelbase" binding:"required"`
	Carlength        *float64 `json:"carlength" binding:"required"`
	Carwidth         *float64 `json:"carwidth" binding:"required"`
	Carheight        *float64 `json:"carheight" binding:"required"`
	Curbweight       *float64 `json:"curbweight" binding:"required"`
	Enginetype       string   `json:"enginetype" binding:"required"`
	Cylindernumber   string   `json:"cylindernumber" binding:"required"`
	Enginesize       *float64 `json:"enginesize" binding:"required"`
	Fuelsystem       string   `json:"fuelsystem" binding:"required"`
	Boreratio        *float64 `json:"boreratio" binding:"required"`
	Stroke           *float64 `json:"stroke" binding:"required"`
	Compressionratio *float64 `json:"compressionratio" binding:"required"`
	Horsepower       *float64 `json:"horsepower" binding:"required"`
	Peakrpm          *float64 `json:"peakrpm" binding:"required"`
	Citympg          *float64 `json:"citympg" binding:"required"`
	Highwaympg       *float64 `json:"highwaympg" binding:"required"`
	Brand            string   `json:"brand,omitempty"`
	CarName          string   `json:"CarName,omitempty"`
}

// Record converts the request into a raw record. A car name wins over a
// bare brand.
func (s *CarSpecification) Record() data.Record {
	r := data.NewRecord()
	for col, v := range map[string]string{
		"fueltype":       s.Fueltype,
		"aspiration":     s.Aspiration,
		"doornumber":     s.Doornumber,
		"carbody":        s.Carbody,
		"drivewheel":     s.Drivewheel,
		"enginelocation": s.Enginelocation,
		"enginetype":     s.Enginetype,
		"cylindernumber": s.Cylindernumber,
		"fuelsystem":     s.Fuelsystem,
	} {
		r.Text[col] = v
	}
	for col, v := range map[string]*float64{
		"wheelbase":        s.Wheelbase,
		"carlength":        s.Carlength,
		"carwidth":         s.Carwidth,
		"carheight":        s.Carheight,
		"curbweight":       s.Curbweight,
		"enginesize":       s.Enginesize,
		"boreratio":        s.Boreratio,
		"stroke":           s.Stroke,
		"compressionratio": s.Compressionratio,
		"horsepower":       s.Horsepower,
		"peakrpm":          s.Peakrpm,
		"citympg":          s.Citympg,
		"highwaympg":       s.Highwaympg,
	} {
		if v != nil {
			r.Values[col] = *v
		}
	}
	switch {
	case s.CarName != "":
		r.Text["CarName"] = s.CarName
	case s.Brand != "":
		r.Text["brand"] = s.Brand
	}
	return r
}

type ModelPerformance struct {
	R2Score float64 `json:"r2_score"`
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
}

type PredictionResponse struct {
	PredictedPrice     float64            `json:"predicted_price"`
	ConfidenceInterval [2]float64         `json:"confidence_interval"`
	ImportantFeatures  map[string]float64 `json:"important_features"`
	ModelPerformance   ModelPerformance   `json:"model_performance"`
}

type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

type ModelInfoResponse struct {
	ModelType    string              `json:"model_type"`
	R2Score      float64             `json:"r2_score"`
	FeatureCount int                 `json:"feature_count"`
	TrainingDate string              `json:"training_date"`
	TopFeatures  []FeatureImportance `json:"top_features"`
}

type HealthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	ModelLoaded        bool   `json:"model_loaded"`
	PreprocessorLoaded bool   `json:"preprocessor_loaded"`
}

type RootResponse struct {
	Message     string `json:"message"`
	Health      string `json:"health"`
	ModelStatus string `json:"model_status"`
}

type OptionsResponse struct {
	Options map[string][]string `json:"options"`
}
