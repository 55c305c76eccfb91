package pipeline

// Column names of the car specifications dataset.
const (
	ColCarName        = "CarName"
	ColBrand          = "brand"
	ColModel          = "model"
	ColPrice          = "price"
	ColSymboling      = "symboling"
	ColCarID          = "car_ID"
	ColCylinderNumber = "cylindernumber"
)

// Schema describes which raw columns the pipeline reads and how.
type Schema struct {
	Categorical []string
	Numerical   []string
	// Excluded columns never reach the model.
	Excluded []string
}

// CarSchema is the fixed schema of the car price dataset.
var CarSchema = Schema{
	Categorical: []string{
		"fueltype", "aspiration", "doornumber", "carbody", "drivewheel",
		"enginelocation", "enginetype", "cylindernumber", "fuelsystem", "brand",
	},
	Numerical: []string{
		"wheelbase", "carlength", "carwidth", "carheight", "curbweight",
		"enginesize", "boreratio", "stroke", "compressionratio", "horsepower",
		"peakrpm", "citympg", "highwaympg",
	},
	Excluded: []string{ColPrice, ColCarName, ColModel, ColSymboling, ColCarID, "price_per_hp"},
}

// TextColumns lists the columns that hold free text in raw input.
func (s Schema) TextColumns() []string {
	out := []string{ColCarName}
	for _, c := range s.Categorical {
		if c != ColBrand {
			out = append(out, c)
		}
	}
	return out
}

// IsExcluded reports whether column is dropped before model consumption.
func (s Schema) IsExcluded(column string) bool {
	for _, c := range s.Excluded {
		if c == column {
			return true
		}
	}
	return false
}
