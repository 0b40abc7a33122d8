package models

import (
	"capsulifyapi/outfits"

	"github.com/go-playground/validator"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryLabel is the display name of a category, e.g. "Shoe".
func CategoryLabel(c outfits.Category) string {
	// Casers keep state, don't share one between requests
	return cases.Title(language.English).String(c.Slug())
}

func ValidateCategory(fl validator.FieldLevel) bool {
	_, ok := outfits.ParseCategory(fl.Field().String())
	return ok
}
