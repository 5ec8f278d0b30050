package services

import (
	"errors"
	"sort"
	"strings"

	"contestlens/internal/dataprocessing"
	"contestlens/internal/dataset"
)

// Data service errors
var (
	ErrNoDataset         = dataset.ErrNoDataset
	ErrUnsupportedFormat = dataprocessing.ErrUnsupportedFormat
	ErrUnreadableUpload  = errors.New("upload could not be read")
	ErrInvalidQuery      = errors.New("invalid query")
)

// QueryError lists the rejected query fields with a reason for each.
type QueryError struct {
	Fields map[string]string
}

func (e *QueryError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return ErrInvalidQuery.Error() + ": " + strings.Join(parts, "; ")
}

func (e *QueryError) Unwrap() error {
	return ErrInvalidQuery
}
