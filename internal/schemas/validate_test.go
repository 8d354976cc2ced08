package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRuleTable_Valid(t *testing.T) {
	content := `{
		"file_input_form_bonus": 15,
		"rules": [
			{"pattern": "resume", "weight": 25},
			{"pattern": "newsletter", "weight": -50}
		]
	}`
	assert.NoError(t, ValidateRuleTable(content))
}

func TestValidateRuleTable_MinimalValid(t *testing.T) {
	assert.NoError(t, ValidateRuleTable(`{"rules": [{"pattern": "cv", "weight": 1}]}`))
}

func TestValidateRuleTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing rules",
			content: `{"file_input_form_bonus": 10}`,
		},
		{
			name:    "empty pattern",
			content: `{"rules": [{"pattern": "", "weight": 5}]}`,
		},
		{
			name:    "missing weight",
			content: `{"rules": [{"pattern": "resume"}]}`,
		},
		{
			name:    "non-integer weight",
			content: `{"rules": [{"pattern": "resume", "weight": 2.5}]}`,
		},
		{
			name:    "unknown property",
			content: `{"rules": [], "bogus": true}`,
		},
		{
			name:    "rules not an array",
			content: `{"rules": "resume"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleTable(tt.content)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "expected a ValidationError, got %T", err)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateRuleTable_MalformedJSON(t *testing.T) {
	err := ValidateRuleTable(`{ not json`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr), "malformed input surfaces as a load error, got %T", err)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "rules.0.pattern", Message: "String length must be greater than or equal to 1"},
	}}
	assert.Contains(t, err.Error(), "rules.0.pattern")
	assert.Contains(t, err.Error(), "validation failed")
}
