package validation

import (
	"fmt"
	"strings"

	"github.com/folioview/folio-backend/internal/model"
)

// ValidAssetCategory contains the allowed asset category values.
var ValidAssetCategory = map[string]bool{
	model.CategoryStock: true,
	model.CategoryBond:  true,
	model.CategoryFund:  true,
	model.CategoryIndex: true,
	model.CategoryCash:  true,
	model.CategoryOther: true,
}

// ValidateAsset validates an asset before it is registered.
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateAsset(a model.Asset) error {
	errors := make(map[string]string)

	if strings.TrimSpace(a.Code) == "" {
		errors["code"] = "code is required"
	}
	if strings.TrimSpace(a.Name) == "" {
		errors["name"] = "name is required"
	}

	if strings.TrimSpace(a.Category) == "" {
		errors["category"] = "category is required"
	} else if !ValidAssetCategory[a.Category] {
		errors["category"] = fmt.Sprintf("invalid category: %s", a.Category)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
