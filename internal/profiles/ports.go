// Package profiles loads and saves the company profile of each user.
package profiles

import (
	"context"
	"errors"

	"orcamento/internal/core"
)

// ErrNotFound is returned by a Repository when the user never saved a profile.
var ErrNotFound = errors.New("company profile not found")

// Reader fetches a stored profile.
type Reader interface {
	Get(ctx context.Context, uid string) (core.CompanyProfile, error)
}

// Writer replaces the stored profile of a user.
type Writer interface {
	Save(ctx context.Context, uid string, p core.CompanyProfile) error
}

// Repository is the document store holding one profile per user.
type Repository interface {
	Reader
	Writer
}
