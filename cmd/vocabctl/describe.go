package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"vocab-backend/internal/services"
)

// describe flattens validation errors into one readable line.
func describe(err error) error {
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, verr.Fields[k]))
	}
	return fmt.Errorf("invalid input (%s)", strings.Join(parts, "; "))
}
