// Package firestore stores company profiles as companies/{uid} documents.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"orcamento/internal/core"
	"orcamento/internal/profiles"
)

// Collection holds one document per user, keyed by uid.
const Collection = "companies"

type companyDocument struct {
	Name      string `firestore:"name"`
	Logo      string `firestore:"logo"`
	WhatsApp  string `firestore:"whatsapp"`
	Instagram string `firestore:"instagram"`
	Address   string `firestore:"address"`
}

func toDocument(p core.CompanyProfile) companyDocument {
	return companyDocument{
		Name:      p.Name,
		Logo:      p.Logo,
		WhatsApp:  p.WhatsApp,
		Instagram: p.Instagram,
		Address:   p.Address,
	}
}

func (d companyDocument) toDomain() core.CompanyProfile {
	return core.CompanyProfile{
		Name:      d.Name,
		Address:   d.Address,
		WhatsApp:  d.WhatsApp,
		Instagram: d.Instagram,
		Logo:      d.Logo,
	}
}

// Repository implements profiles.Repository on Firestore.
type Repository struct {
	client *firestore.Client
}

func NewRepository(client *firestore.Client) (*Repository, error) {
	if client == nil {
		return nil, errors.New("profile repository requires firestore client")
	}
	return &Repository{client: client}, nil
}

// Open dials Firestore for projectID. An empty credentialsFile uses
// application default credentials.
func Open(ctx context.Context, projectID, credentialsFile string) (*Repository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewRepository(client)
}

func (r *Repository) Get(ctx context.Context, uid string) (core.CompanyProfile, error) {
	if uid == "" {
		return core.CompanyProfile{}, errors.New("profile repository: uid is required")
	}
	snap, err := r.client.Collection(Collection).Doc(uid).Get(ctx)
	if err != nil {
		return core.CompanyProfile{}, wrapError("companies.get", err)
	}
	var doc companyDocument
	if err := snap.DataTo(&doc); err != nil {
		return core.CompanyProfile{}, fmt.Errorf("decode company %s: %w", uid, err)
	}
	return doc.toDomain(), nil
}

// Save overwrites the whole document.
func (r *Repository) Save(ctx context.Context, uid string, p core.CompanyProfile) error {
	if uid == "" {
		return errors.New("profile repository: uid is required")
	}
	if _, err := r.client.Collection(Collection).Doc(uid).Set(ctx, toDocument(p)); err != nil {
		return wrapError("companies.set", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

// wrapError maps a missing document to profiles.ErrNotFound and passes
// cancellations through untouched.
func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, profiles.ErrNotFound)
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return fmt.Errorf("%s: %w", op, err)
}
