package cart

import (
	"fmt"
	"slices"
)

// ProductOptions lists the variant values a product offers. An empty list
// means the axis does not apply to the product.
type ProductOptions struct {
	Sizes  []string
	Colors []string
}

// ValidationError reports a bad variant selection for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateSelection checks a size/color selection against what the product
// offers. It must pass before the selection is handed to Store.AddItem.
func ValidateSelection(opts ProductOptions, size, color string) error {
	if err := checkAxis("size", opts.Sizes, size); err != nil {
		return err
	}
	return checkAxis("color", opts.Colors, color)
}

func checkAxis(field string, offered []string, selected string) error {
	if len(offered) == 0 {
		if selected != "" {
			return &ValidationError{Field: field, Message: "product has no " + field + " options"}
		}
		return nil
	}
	if selected == "" {
		return &ValidationError{Field: field, Message: "please select a " + field}
	}
	if !slices.Contains(offered, selected) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not available", selected)}
	}
	return nil
}
