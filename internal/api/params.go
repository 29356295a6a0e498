package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/teemow/tagdeck/internal/errors"
	"github.com/teemow/tagdeck/internal/tagfilter"
)

// parseSelection reads a tag filter from the comma-separated "tags" and the
// "mode" query parameters.
func parseSelection(r *http.Request) (tagfilter.Selection, error) {
	q := r.URL.Query()
	mode, err := tagfilter.ParseMode(q.Get("mode"))
	if err != nil {
		return tagfilter.Selection{}, apperrors.Validation(err.Error())
	}
	var ids []string
	for _, id := range strings.Split(q.Get("tags"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return tagfilter.NewSelection(ids, mode), nil
}

// parseTime reads an optional RFC 3339 query parameter.
func parseTime(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, apperrors.Validationf("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

// parseInt reads an optional non-negative integer query parameter.
func parseInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.Validationf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// parseLocation reads the optional IANA "tz" query parameter.
func parseLocation(r *http.Request) (*time.Location, error) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperrors.Validationf("unknown time zone %q", name)
	}
	return loc, nil
}
