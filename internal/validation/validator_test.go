package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/validation"
)

type tagRequest struct {
	Name  string `json:"name" validate:"notblank,max=64"`
	Type  string `json:"type" validate:"tagtype"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(tagRequest{Name: "Work", Type: "pin", Color: "#4285F4"}))
	assert.NoError(t, v.Validate(tagRequest{Name: "High", Type: "priority"}))
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       tagRequest
		wantField string
	}{
		{name: "blank name", req: tagRequest{Name: "   ", Type: "pin"}, wantField: "name"},
		{name: "unknown type", req: tagRequest{Name: "Work", Type: "label"}, wantField: "type"},
		{name: "bad color", req: tagRequest{Name: "Work", Type: "pin", Color: "blue"}, wantField: "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus())

			details, ok := appErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
			assert.Contains(t, appErr.Message, tt.wantField)
		})
	}
}

func TestValidator_ViewID(t *testing.T) {
	type viewRequest struct {
		ViewID string `json:"view_id" validate:"omitempty,viewid"`
	}
	v := validation.New()

	assert.NoError(t, v.Validate(viewRequest{}))
	assert.NoError(t, v.Validate(viewRequest{ViewID: "tab-1_B"}))

	err := v.Validate(viewRequest{ViewID: "a/b"})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]string{"view_id": "may only contain letters, digits, - and _"}, appErr.Details)
}
