package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/civicdesk/grievance-service/pkg/util/errorutil"
)

type sample struct {
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,phone10"`
	Email    string `json:"email" validate:"omitempty,email"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{name: "valid", input: sample{Name: "Asha", Phone: "9876543210"}},
		{name: "short phone", input: sample{Name: "Asha", Phone: "12345"}, wantFields: []string{"phone"}},
		{name: "phone with letters", input: sample{Name: "Asha", Phone: "98765abcde"}, wantFields: []string{"phone"}},
		{name: "bad email and priority", input: sample{Name: "Asha", Phone: "9876543210", Email: "nope", Priority: "urgent"}, wantFields: []string{"email", "priority"}},
		{name: "missing name", input: sample{Phone: "9876543210"}, wantFields: []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var de *apperrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, apperrors.CodeValidation, de.Code)
			for _, field := range tt.wantFields {
				assert.Contains(t, de.Details, field)
			}
			assert.Len(t, de.Details, len(tt.wantFields))
		})
	}
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("9999999999"))
	assert.False(t, IsPhone("999999999"))
	assert.False(t, IsPhone("99999999999"))
	assert.False(t, IsPhone(" 9999999999"))
}
