package site

import (
	"encoding/json"
	"os"

	ferrors "git.home.luguber.info/inful/exportmap/internal/foundation/errors"
	"git.home.luguber.info/inful/exportmap/internal/pathmap"
)

// defaultEntry accepts both "params" and the host framework's "query" key.
type defaultEntry struct {
	Page   string         `json:"page"`
	Params pathmap.Params `json:"params"`
	Query  pathmap.Params `json:"query"`
}

// ReadDefaults reads a default path table supplied by the host framework:
// a JSON object of output path -> {"page": ..., "query": {...}}.
func ReadDefaults(path string) (pathmap.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NewError(ferrors.CategoryNotFound, "default table file not found").
				WithContext("file", path).
				UserAction().
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read default table").
			WithContext("file", path).
			Build()
	}
	return ParseDefaults(data, path)
}

// ParseDefaults decodes a default path table. name labels errors.
func ParseDefaults(data []byte, name string) (pathmap.Table, error) {
	var raw map[string]defaultEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid default table").
			WithContext("file", name).
			Build()
	}
	table := make(pathmap.Table, len(raw))
	for p, e := range raw {
		if e.Page == "" {
			return nil, ferrors.ValidationError("default table entry has no page").
				WithContext("file", name).
				WithContext("path", p).
				Build()
		}
		params := e.Params
		if len(params) == 0 {
			params = e.Query
		}
		table[p] = pathmap.Target(e.Page, params)
	}
	if err := table.Validate(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid default table").
			WithContext("file", name).
			Build()
	}
	return table, nil
}
