// Package artifact persists fitted preprocessing state, models and their
// metadata as gob files in a models directory.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nopgae/usedcararoundme/pkg/dataprep"
	"github.com/nopgae/usedcararoundme/pkg/model"
	"github.com/nopgae/usedcararoundme/pkg/pipeline"
	"github.com/nopgae/usedcararoundme/pkg/stats"
)

const (
	EncodersFile     = "encoders.gob"
	ScalerFile       = "scaler.gob"
	DefaultModelFile = "car_price_model.gob"
	DefaultInfoFile  = "model_info.gob"
)

// ModelFile is the per-type model artifact name.
func ModelFile(modelType string) string { return "car_price_" + modelType + ".gob" }

// InfoFile is the per-type metadata artifact name.
func InfoFile(modelType string) string { return "model_info_" + modelType + ".gob" }

// ErrNotFound wraps a missing artifact.
var ErrNotFound = errors.New("artifact not found")

// ModelInfo describes a trained model and how it scored on the held-out set.
type ModelInfo struct {
	ModelType    string
	R2Score      float64
	RMSE         float64
	MAE          float64
	NumFeatures  int
	FeatureNames []string
	TopFeatures  []model.FeatureImportance
	TrainingDate time.Time
}

// modelEnvelope lets gob carry the concrete estimator behind the interface,
// together with the preprocessing state it was trained on.
type modelEnvelope struct {
	Model model.Estimator
	State *pipeline.State
}

// Bundle is a model with its metadata and the preprocessing state that
// produced its training features.
type Bundle struct {
	Model model.Estimator
	Info  *ModelInfo
	// State is nil for models saved without one.
	State *pipeline.State
}

// Store reads and writes artifacts under Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store { return &Store{Dir: dir} }

func (s *Store) path(name string) string { return filepath.Join(s.Dir, name) }

// SaveState writes the encoders and the scaler.
func (s *Store) SaveState(st *pipeline.State) error {
	if st == nil || st.Encoders == nil || st.Scaler == nil {
		return pipeline.ErrNotFitted
	}
	if err := s.write(EncodersFile, st.Encoders); err != nil {
		return err
	}
	return s.write(ScalerFile, st.Scaler)
}

// LoadState reads the encoders and the scaler.
func (s *Store) LoadState() (*pipeline.State, error) {
	var enc dataprep.EncoderSet
	if err := s.read(EncodersFile, &enc); err != nil {
		return nil, err
	}
	var sc stats.StandardScaler
	if err := s.read(ScalerFile, &sc); err != nil {
		return nil, err
	}
	if !sc.Fitted {
		return nil, fmt.Errorf("%s: %w", s.path(ScalerFile), stats.ErrScalerNotFitted)
	}
	return &pipeline.State{Encoders: &enc, Scaler: &sc}, nil
}

// SaveModel writes the model, the state it was trained with and its info
// under the per-type names. It does not touch the served artifacts.
func (s *Store) SaveModel(m model.Estimator, info ModelInfo, st *pipeline.State) error {
	if st == nil || st.Encoders == nil || st.Scaler == nil {
		return pipeline.ErrNotFitted
	}
	if err := s.write(ModelFile(m.Name()), &modelEnvelope{Model: m, State: st}); err != nil {
		return err
	}
	return s.write(InfoFile(m.Name()), &info)
}

// LoadModel reads a per-type model and its info. An empty modelType loads
// the promoted default.
func (s *Store) LoadModel(modelType string) (model.Estimator, *ModelInfo, error) {
	b, err := s.LoadBundle(modelType)
	if err != nil {
		return nil, nil, err
	}
	return b.Model, b.Info, nil
}

// LoadBundle is LoadModel plus the state stored with the model.
func (s *Store) LoadBundle(modelType string) (*Bundle, error) {
	modelName, infoName := DefaultModelFile, DefaultInfoFile
	if modelType != "" {
		modelName, infoName = ModelFile(modelType), InfoFile(modelType)
	}
	var env modelEnvelope
	if err := s.read(modelName, &env); err != nil {
		return nil, err
	}
	if env.Model == nil {
		return nil, fmt.Errorf("%s: empty model", s.path(modelName))
	}
	if env.State != nil && (env.State.Encoders == nil || env.State.Scaler == nil || !env.State.Scaler.Fitted) {
		return nil, fmt.Errorf("%s: %w", s.path(modelName), pipeline.ErrNotFitted)
	}
	var info ModelInfo
	if err := s.read(infoName, &info); err != nil {
		return nil, err
	}
	return &Bundle{Model: env.Model, Info: &info, State: env.State}, nil
}

// Promote makes the per-type artifacts of modelType the default served
// model and rewrites encoders.gob and scaler.gob from the state it was
// trained with.
func (s *Store) Promote(modelType string) error {
	b, err := s.LoadBundle(modelType)
	if err != nil {
		return err
	}
	if b.State == nil {
		return fmt.Errorf("%s: %w", s.path(ModelFile(modelType)), pipeline.ErrNotFitted)
	}
	if err := s.write(DefaultModelFile, &modelEnvelope{Model: b.Model, State: b.State}); err != nil {
		return err
	}
	if err := s.write(DefaultInfoFile, b.Info); err != nil {
		return err
	}
	return s.SaveState(b.State)
}

// write encodes v into a temp file next to name and renames it into place,
// so readers never observe a partial artifact.
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}

func (s *Store) read(name string, v any) error {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", s.path(name), ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", s.path(name), err)
	}
	return nil
}
