package cart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSelection(t *testing.T) {
	sized := ProductOptions{Sizes: []string{"S", "M"}}
	both := ProductOptions{Sizes: []string{"S", "M"}, Colors: []string{"Red"}}

	tests := []struct {
		name      string
		opts      ProductOptions
		size      string
		color     string
		wantField string
	}{
		{name: "no axes", opts: ProductOptions{}},
		{name: "size selected", opts: sized, size: "M"},
		{name: "size missing", opts: sized, wantField: "size"},
		{name: "size not offered", opts: sized, size: "XL", wantField: "size"},
		{name: "color on product without colors", opts: sized, size: "S", color: "Red", wantField: "color"},
		{name: "color missing", opts: both, size: "S", wantField: "color"},
		{name: "both selected", opts: both, size: "S", color: "Red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelection(tt.opts, tt.size, tt.color)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}
