package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	BaseURL string `validate:"required,url"`
	Mode    string `validate:"oneof=debug release test"`
	Workers int    `validate:"min=1"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(sample{BaseURL: "http://localhost:8080", Mode: "debug", Workers: 4}))

	err := v.Validate(&sample{Mode: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.BaseURL is required")
	assert.Contains(t, err.Error(), "sample.Mode must be one of [debug release test]")
	assert.Contains(t, err.Error(), "sample.Workers must be at least 1")
}
