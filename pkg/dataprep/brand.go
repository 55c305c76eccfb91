package dataprep

import "strings"

// brandCorrections maps known misspellings in the dataset to the brand name.
var brandCorrections = map[string]string{
	"maxda":     "mazda",
	"porcshce":  "porsche",
	"toyouta":   "toyota",
	"vokswagen": "volkswagen",
	"vw":        "volkswagen",
}

// ExtractBrand splits a free-text car name into a normalized brand (first
// token) and the model (remaining tokens). Blank input gives an empty brand.
func ExtractBrand(name string) (brand, model string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", ""
	}
	return NormalizeBrand(tokens[0]), strings.Join(tokens[1:], " ")
}

// NormalizeBrand lowercases brand and applies the misspelling table.
func NormalizeBrand(brand string) string {
	b := strings.ToLower(strings.TrimSpace(brand))
	if fixed, ok := brandCorrections[b]; ok {
		return fixed
	}
	return b
}
