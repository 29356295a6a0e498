package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringOrArray(t *testing.T) {
	tooMany := make([]interface{}, MaxItems+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("id%d", i)
	}

	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr string
	}{
		{name: "single string", input: "m1", want: []string{"m1"}},
		{name: "array of strings", input: []interface{}{"m1", "m2"}, want: []string{"m1", "m2"}},
		{name: "duplicates dropped", input: []interface{}{"m1", "m2", "m1"}, want: []string{"m1", "m2"}},
		{name: "nil input", input: nil, wantErr: "ids is required"},
		{name: "empty string", input: "", wantErr: "ids cannot be empty"},
		{name: "empty array", input: []interface{}{}, wantErr: "ids cannot be empty"},
		{name: "non-string element", input: []interface{}{"m1", 2}, wantErr: "ids[1] must be a string"},
		{name: "empty element", input: []interface{}{"m1", ""}, wantErr: "ids[1] cannot be empty"},
		{name: "wrong type", input: 42, wantErr: "must be a string or array"},
		{name: "too many", input: tooMany, wantErr: "at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "ids")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessBatch(t *testing.T) {
	results := ProcessBatch(context.Background(), []string{"m1", "m2", "m3"},
		func(_ context.Context, id string) (interface{}, error) {
			if id == "m2" {
				return nil, errors.New("not found")
			}
			return "done " + id, nil
		})

	require.Len(t, results, 3)
	assert.Equal(t, NewSuccessResult("m1", "done m1"), results[0])
	assert.Equal(t, Result{ID: "m2", Status: StatusError, Error: "not found"}, results[1])
	assert.Equal(t, StatusSuccess, results[2].Status)

	summary := Summarize(results)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
}

func TestProcessBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	results := ProcessBatch(ctx, []string{"m1", "m2"}, func(_ context.Context, id string) (interface{}, error) {
		calls++
		cancel()
		return id, nil
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Equal(t, 1, Summarize(results).Skipped)
}
