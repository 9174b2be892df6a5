// Package store is the document-store boundary: three collections of records
// keyed by opaque ids, each observable as a push stream of full snapshots.
// Snapshots are authoritative and total, never diffs.
package store

import (
	"context"
	"errors"

	"ritech/internal/domain"
)

var ErrNotFound = errors.New("not found")

// ClientFields enumerates the editable client fields. Nil means unchanged.
// Creation timestamps are server-owned and not editable.
type ClientFields struct {
	Name *string
}

// SiteFields enumerates the editable site fields.
type SiteFields struct {
	Name *string
}

// JobFields enumerates the editable job fields.
type JobFields struct {
	Type            *string
	Status          *string
	Description     *string
	OfferRef        *string
	TechnicianNotes *string
	IsPriority      *bool
	StartDate       *string
	EndDate         *string
}

// Store is the storage collaborator contract. Create assigns the record id
// and creation timestamp server-side; Update applies partial fields and never
// touches created_at; Subscribe pushes the full current record set now and
// after every mutation of that collection.
type Store interface {
	SubscribeClients(fn func([]domain.Client)) (cancel func(), err error)
	SubscribeSites(fn func([]domain.Site)) (cancel func(), err error)
	SubscribeJobs(fn func([]domain.Job)) (cancel func(), err error)

	CreateClient(ctx context.Context, c domain.Client) (domain.Client, error)
	UpdateClient(ctx context.Context, id string, f ClientFields) error
	DeleteClient(ctx context.Context, id string) error

	CreateSite(ctx context.Context, s domain.Site) (domain.Site, error)
	UpdateSite(ctx context.Context, id string, f SiteFields) error
	DeleteSite(ctx context.Context, id string) error

	CreateJob(ctx context.Context, j domain.Job) (domain.Job, error)
	UpdateJob(ctx context.Context, id string, f JobFields) error
	SetJobStatus(ctx context.Context, id, status string) error
	DeleteJob(ctx context.Context, id string) error
}
