package dataprep

import (
	"math"
	"strings"

	"github.com/nopgae/usedcararoundme/pkg/data"
)

// Engineered feature names.
const (
	FeatPowerToWeight      = "power_to_weight_ratio"
	FeatPricePerHP         = "price_per_hp"
	FeatLogEngineSize      = "log_enginesize"
	FeatLogHorsepower      = "log_horsepower"
	FeatHighwayCityRatio   = "highway_city_ratio"
	FeatEngineSizePerCylnd = "engine_size_per_cylinder"
)

// squaredColumns get a <col>_squared feature.
var squaredColumns = []string{"enginesize", "horsepower", "curbweight"}

// synthInputs are the raw numeric columns the synthesizer reads.
var synthInputs = []string{"horsepower", "curbweight", "enginesize", "highwaympg", "citympg"}

var cylinderWords = map[string]int{
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "eight": 8, "twelve": 12,
}

// Decoder resolves an encoded category back to its original value.
type Decoder interface {
	Decode(column string, code int) (string, error)
}

// EngineeredFeatures lists the features Synthesize adds to every record,
// excluding the training-only price_per_hp.
func EngineeredFeatures() []string {
	out := []string{FeatPowerToWeight}
	for _, c := range squaredColumns {
		out = append(out, c+"_squared")
	}
	return append(out, FeatLogEngineSize, FeatLogHorsepower, FeatHighwayCityRatio, FeatEngineSizePerCylnd)
}

// Synthesize adds the engineered features to rec in place. It reads raw,
// unscaled numeric columns. price_per_hp is only produced when rec carries a
// price, so inference records never see the target.
func Synthesize(rec *data.Record, dec Decoder) error {
	for _, c := range synthInputs {
		if _, ok := rec.Values[c]; !ok {
			return &MissingColumnError{Column: c}
		}
	}
	if !rec.Has("cylindernumber") {
		return &MissingColumnError{Column: "cylindernumber"}
	}

	v := rec.Values
	hp, weight, size := v["horsepower"], v["curbweight"], v["enginesize"]

	v[FeatPowerToWeight] = ratio(hp, weight)
	if price, ok := v["price"]; ok {
		v[FeatPricePerHP] = ratio(price, hp)
	}
	for _, c := range squaredColumns {
		v[c+"_squared"] = v[c] * v[c]
	}
	v[FeatLogEngineSize] = math.Log1p(size)
	v[FeatLogHorsepower] = math.Log1p(hp)
	v[FeatHighwayCityRatio] = ratio(v["highwaympg"], v["citympg"])

	if n := CylinderCount(*rec, dec); n > 0 {
		v[FeatEngineSizePerCylnd] = size / float64(n)
	} else {
		v[FeatEngineSizePerCylnd] = 0
	}
	return nil
}

// CylinderCount resolves the physical number of cylinders of rec. A text
// value is read directly; an encoded value is first decoded through dec, so
// the arbitrary code is never mistaken for a count. Unresolvable values
// return 0.
func CylinderCount(rec data.Record, dec Decoder) int {
	if word, ok := rec.Text["cylindernumber"]; ok {
		return cylinderWords[strings.ToLower(strings.TrimSpace(word))]
	}
	code, ok := rec.Values["cylindernumber"]
	if !ok || dec == nil || code != math.Trunc(code) {
		return 0
	}
	word, err := dec.Decode("cylindernumber", int(code))
	if err != nil {
		return 0
	}
	return cylinderWords[strings.ToLower(word)]
}

// ratio divides a by b, yielding 0 instead of ±Inf or NaN when b is 0.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
