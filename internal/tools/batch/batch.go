package batch

import (
	"context"
	"fmt"
)

// Outcomes of a single item.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Result is the outcome for one id.
type Result struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// BatchResult aggregates the outcomes of a batch.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped,omitempty"`
	Results    []Result `json:"results"`
}

// MaxItems bounds how many ids one tool call may act on.
const MaxItems = 50

// ParseStringOrArray parses a parameter that can be either a single string or
// an array of strings. Duplicates are dropped and at most MaxItems are accepted.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var result []string
	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		result = []string{v}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		seen := make(map[string]struct{}, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			if _, dup := seen[str]; dup {
				continue
			}
			seen[str] = struct{}{}
			result = append(result, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(result) > MaxItems {
		return nil, fmt.Errorf("%s accepts at most %d ids, got %d", paramName, MaxItems, len(result))
	}
	return result, nil
}

// Summarize counts the outcomes of results.
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			br.Successful++
		case StatusSkipped:
			br.Skipped++
		default:
			br.Failed++
		}
	}
	return br
}

// ProcessBatch calls fn for each id in order. Ids left when ctx is done are
// reported as skipped.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (interface{}, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Status: StatusSkipped, Error: err.Error()})
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}
	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(id string, value interface{}) Result {
	return Result{ID: id, Status: StatusSuccess, Result: value}
}

// NewErrorResult creates an error result
func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
