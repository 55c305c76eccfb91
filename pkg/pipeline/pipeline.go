package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nopgae/usedcararoundme/pkg/data"
	"github.com/nopgae/usedcararoundme/pkg/dataprep"
	"github.com/nopgae/usedcararoundme/pkg/stats"
)

// Mode selects whether Preprocess fits state or only applies it.
type Mode int

const (
	Training Mode = iota
	Inference
)

func (m Mode) String() string {
	if m == Training {
		return "training"
	}
	return "inference"
}

// ErrNotFitted is returned when inference runs before any state is fitted
// or loaded.
var ErrNotFitted = errors.New("pipeline: state not fitted")

// Error types surfaced by Preprocess.
type (
	MissingColumnError    = dataprep.MissingColumnError
	UnknownCategoryError  = dataprep.UnknownCategoryError
	DegenerateColumnError = stats.DegenerateColumnError
)

// State is the fitted encoder and scaler state. It is written once by a
// training run and read-only afterwards.
type State struct {
	Encoders *dataprep.EncoderSet
	Scaler   *stats.StandardScaler
}

// Preprocessor runs brand extraction, categorical encoding, feature
// synthesis and numeric scaling, in that order, for both training and
// inference.
type Preprocessor struct {
	Schema Schema
	State  *State
	// StrictScaling makes a zero-variance numeric column fail training.
	StrictScaling bool
	Logger        *slog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithState installs previously fitted state, typically loaded from disk.
func WithState(s *State) Option { return func(p *Preprocessor) { p.State = s } }

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(p *Preprocessor) { p.Logger = l } }

// WithStrictScaling makes a constant numeric column fail training.
func WithStrictScaling(b bool) Option { return func(p *Preprocessor) { p.StrictScaling = b } }

// WithSchema replaces CarSchema.
func WithSchema(s Schema) Option { return func(p *Preprocessor) { p.Schema = s } }

// New returns a Preprocessor over CarSchema with no fitted state.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{Schema: CarSchema, Logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Preprocess transforms raw records into processed records. In Training
// mode it fits fresh encoder and scaler state and installs it only when every
// step succeeded; in Inference mode it applies the existing state. Input
// records are never mutated.
func (p *Preprocessor) Preprocess(records []data.Record, mode Mode) ([]data.Record, error) {
	if mode == Inference && (p.State == nil || p.State.Encoders == nil || p.State.Scaler == nil) {
		return nil, ErrNotFitted
	}
	p.Logger.Debug("preprocessing", "mode", mode.String(), "records", len(records))

	out := make([]data.Record, len(records))
	for i, r := range records {
		rec := r.Clone()
		if err := p.checkRequired(rec, mode); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := extractBrand(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = rec
	}

	encoders := p.encoders()
	if mode == Training {
		encoders = p.fitEncoders(out)
	} else if err := p.applyEncoders(out, encoders); err != nil {
		return nil, err
	}

	for i := range out {
		if err := dataprep.Synthesize(&out[i], encoders); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if mode == Inference {
			delete(out[i].Values, dataprep.FeatPricePerHP)
		}
	}

	scaler := p.scaler()
	if mode == Training {
		var err error
		if scaler, err = p.fitScaler(out); err != nil {
			return nil, err
		}
	}
	if err := p.applyScaler(out, scaler); err != nil {
		return nil, err
	}

	if mode == Training {
		p.State = &State{Encoders: encoders, Scaler: scaler}
		p.Logger.Info("fitted preprocessing state",
			"records", len(out), "encoders", len(encoders.Encoders), "scaled_columns", len(scaler.Columns))
	}
	return out, nil
}

func (p *Preprocessor) encoders() *dataprep.EncoderSet {
	if p.State == nil {
		return nil
	}
	return p.State.Encoders
}

func (p *Preprocessor) scaler() *stats.StandardScaler {
	if p.State == nil {
		return nil
	}
	return p.State.Scaler
}

// checkRequired wants every categorical column as text and every numeric
// column as a value. A column present only in the other form is missing.
func (p *Preprocessor) checkRequired(rec data.Record, mode Mode) error {
	for _, c := range p.Schema.Categorical {
		if _, ok := rec.Text[c]; !ok && c != ColBrand {
			return &MissingColumnError{Column: c}
		}
	}
	for _, c := range p.Schema.Numerical {
		if _, ok := rec.Values[c]; !ok {
			return &MissingColumnError{Column: c}
		}
	}
	if mode == Training {
		if _, ok := rec.Values[ColPrice]; !ok {
			return &MissingColumnError{Column: ColPrice}
		}
	}
	return nil
}

// extractBrand derives brand and model from CarName. A record without a car
// name may carry the brand directly; it is normalized the same way.
func extractBrand(rec *data.Record) error {
	if name, ok := rec.Text[ColCarName]; ok {
		brand, model := dataprep.ExtractBrand(name)
		rec.Text[ColBrand] = brand
		rec.Text[ColModel] = model
		return nil
	}
	if brand, ok := rec.Text[ColBrand]; ok {
		rec.Text[ColBrand] = dataprep.NormalizeBrand(brand)
		return nil
	}
	return &MissingColumnError{Column: ColCarName}
}

func (p *Preprocessor) fitEncoders(records []data.Record) *dataprep.EncoderSet {
	columns := make(map[string][]string, len(p.Schema.Categorical))
	for _, col := range p.Schema.Categorical {
		values := make([]string, len(records))
		for i, r := range records {
			values[i] = r.Text[col]
		}
		columns[col] = values
	}
	set := dataprep.NewEncoderSet()
	encoded := set.Fit(columns)
	for col, codes := range encoded {
		for i := range records {
			delete(records[i].Text, col)
			records[i].Values[col] = float64(codes[i])
		}
	}
	return set
}

func (p *Preprocessor) applyEncoders(records []data.Record, set *dataprep.EncoderSet) error {
	for i := range records {
		for _, col := range p.Schema.Categorical {
			code, err := set.Transform(col, records[i].Text[col])
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			delete(records[i].Text, col)
			records[i].Values[col] = float64(code)
		}
	}
	return nil
}

func (p *Preprocessor) numericMatrix(records []data.Record) [][]float64 {
	X := make([][]float64, len(records))
	for i, r := range records {
		row := make([]float64, len(p.Schema.Numerical))
		for j, col := range p.Schema.Numerical {
			row[j] = r.Values[col]
		}
		X[i] = row
	}
	return X
}

func (p *Preprocessor) fitScaler(records []data.Record) (*stats.StandardScaler, error) {
	scaler := stats.NewStandardScaler(p.Schema.Numerical)
	scaler.Strict = p.StrictScaling
	if err := scaler.Fit(p.numericMatrix(records)); err != nil {
		return nil, err
	}
	for _, err := range scaler.DegenerateErrors() {
		p.Logger.Warn("numeric column scales to zero", "error", err)
	}
	return scaler, nil
}

func (p *Preprocessor) applyScaler(records []data.Record, scaler *stats.StandardScaler) error {
	X, err := scaler.Transform(p.numericMatrix(records))
	if err != nil {
		return err
	}
	for i := range records {
		for j, col := range p.Schema.Numerical {
			records[i].Values[col] = X[i][j]
		}
	}
	return nil
}

// KnownCategories lists the fitted categories of a categorical column.
func (p *Preprocessor) KnownCategories(column string) ([]string, error) {
	if p.State == nil || p.State.Encoders == nil {
		return nil, ErrNotFitted
	}
	classes := p.State.Encoders.Classes(column)
	if classes == nil {
		return nil, fmt.Errorf("pipeline: %q is not a categorical column", column)
	}
	return classes, nil
}

// FeatureNames returns the sorted model feature names of a processed
// record: every numeric value except the excluded target and identifier
// columns.
func (s Schema) FeatureNames(rec data.Record) []string {
	names := make([]string, 0, len(rec.Values))
	for k := range rec.Values {
		if !s.IsExcluded(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// FeatureMismatchError reports train/inference skew: a processed record
// whose features differ from the ones the model was fitted on.
type FeatureMismatchError struct {
	Missing    []string
	Unexpected []string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature mismatch: missing %v, unexpected %v", e.Missing, e.Unexpected)
}

// Matrix builds the model input from processed records, one column per
// name. Any record whose feature set differs from names is rejected.
func (s Schema) Matrix(records []data.Record, names []string) ([][]float64, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	X := make([][]float64, len(records))
	for i, r := range records {
		var mismatch FeatureMismatchError
		for _, n := range names {
			if _, ok := r.Values[n]; !ok {
				mismatch.Missing = append(mismatch.Missing, n)
			}
		}
		for _, n := range s.FeatureNames(r) {
			if !want[n] {
				mismatch.Unexpected = append(mismatch.Unexpected, n)
			}
		}
		if len(mismatch.Missing) > 0 || len(mismatch.Unexpected) > 0 {
			return nil, fmt.Errorf("record %d: %w", i, &mismatch)
		}
		row := make([]float64, len(names))
		for j, n := range names {
			row[j] = r.Values[n]
		}
		X[i] = row
	}
	return X, nil
}

// Targets extracts the price column of processed training records.
func Targets(records []data.Record) ([]float64, error) {
	y := make([]float64, len(records))
	for i, r := range records {
		v, ok := r.Values[ColPrice]
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, &MissingColumnError{Column: ColPrice})
		}
		y[i] = v
	}
	return y, nil
}
