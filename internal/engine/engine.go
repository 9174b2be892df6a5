// Package engine holds the derived-state core: referential filtering,
// urgency scoring, view projection, the delete orchestrator, and the status
// guard. It owns the three raw snapshots, replaces them wholesale as the
// store pushes updates, and recomputes everything derived on demand.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ritech/internal/auth"
	"ritech/internal/domain"
	"ritech/internal/store"
)

type Engine struct {
	Store store.Store
	Auth  auth.Authenticator
	Now   func() time.Time

	mu      sync.RWMutex
	clients []domain.Client
	sites   []domain.Site
	jobs    []domain.Job
}

// New subscribes the engine to the three collections. The store pushes the
// current record sets synchronously during Subscribe, so the engine is
// populated before New returns; it renders whatever has arrived and never
// waits for all three feeds (the filter hides transient inconsistencies).
func New(st store.Store, au auth.Authenticator) (*Engine, error) {
	e := &Engine{Store: st, Auth: au, Now: time.Now}
	if _, err := st.SubscribeClients(e.setClients); err != nil {
		return nil, fmt.Errorf("subscribe clients: %w", err)
	}
	if _, err := st.SubscribeSites(e.setSites); err != nil {
		return nil, fmt.Errorf("subscribe sites: %w", err)
	}
	if _, err := st.SubscribeJobs(e.setJobs); err != nil {
		return nil, fmt.Errorf("subscribe jobs: %w", err)
	}
	return e, nil
}

// Snapshot setters replace the slice wholesale; nothing ever mutates a
// snapshot in place.

func (e *Engine) setClients(snap []domain.Client) {
	e.mu.Lock()
	e.clients = snap
	e.mu.Unlock()
}

func (e *Engine) setSites(snap []domain.Site) {
	e.mu.Lock()
	e.sites = snap
	e.mu.Unlock()
}

func (e *Engine) setJobs(snap []domain.Job) {
	e.mu.Lock()
	e.jobs = snap
	e.mu.Unlock()
}

// View projects the current snapshots through filter -> score -> sort.
func (e *Engine) View(scope Scope) View {
	e.mu.RLock()
	clients, sites, jobs := e.clients, e.sites, e.jobs
	e.mu.RUnlock()
	return Project(clients, sites, jobs, scope)
}

// session ensures an authenticated session before a write, re-authenticating
// lazily, and tags the context with the acting user for audit events. A
// caller-supplied actor (the HTTP principal) takes precedence over the
// session's own identity. On failure the write must not be attempted.
func (e *Engine) session(ctx context.Context) (context.Context, error) {
	if e.Auth == nil {
		return ctx, fmt.Errorf("%w: no authenticator configured", auth.ErrUnavailable)
	}
	s, ok := e.Auth.Current()
	if !ok {
		var err error
		s, err = e.Auth.Reauthenticate(ctx)
		if err != nil {
			if errors.Is(err, auth.ErrUnavailable) {
				return ctx, err
			}
			return ctx, fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
		}
	}
	if auth.ActorFrom(ctx) != "" {
		return ctx, nil
	}
	return auth.WithActor(ctx, s.ActorID), nil
}

// --- lookups over the raw snapshots ---

func (e *Engine) Client(id string) (domain.Client, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.clients {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Client{}, false
}

func (e *Engine) Site(id string) (domain.Site, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.sites {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Site{}, false
}

func (e *Engine) Job(id string) (domain.Job, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, j := range e.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return domain.Job{}, false
}

// SiteOf resolves a job's parent site from the raw snapshot, for jumping from
// a dashboard entry to the job's site.
func (e *Engine) SiteOf(j domain.Job) (domain.Site, bool) {
	return e.Site(j.SiteID)
}

// --- commands ---

func (e *Engine) AddClient(ctx context.Context, name string) (domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Client{}, errors.New("client name is required")
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	return e.Store.CreateClient(ctx, domain.Client{Name: name})
}

func (e *Engine) UpdateClient(ctx context.Context, id string, f store.ClientFields) error {
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return errors.New("client name is required")
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return err
	}
	return e.Store.UpdateClient(ctx, id, f)
}

// AddSite creates a site under an existing client, capturing the client name
// as a display snapshot.
func (e *Engine) AddSite(ctx context.Context, clientID, name string) (domain.Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Site{}, errors.New("site name is required")
	}
	client, ok := e.Client(clientID)
	if !ok {
		return domain.Site{}, fmt.Errorf("client %s: %w", clientID, store.ErrNotFound)
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return domain.Site{}, err
	}
	return e.Store.CreateSite(ctx, domain.Site{
		ClientID:   client.ID,
		Name:       name,
		ClientName: client.Name,
	})
}

func (e *Engine) UpdateSite(ctx context.Context, id string, f store.SiteFields) error {
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return errors.New("site name is required")
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return err
	}
	return e.Store.UpdateSite(ctx, id, f)
}

// AddJob creates a job under an existing site. Type defaults to electric and
// status to todo, matching the intake form defaults. Client and site names
// are captured for display continuity.
func (e *Engine) AddJob(ctx context.Context, siteID string, j domain.Job) (domain.Job, error) {
	if strings.TrimSpace(j.Description) == "" {
		return domain.Job{}, errors.New("job description is required")
	}
	site, ok := e.Site(siteID)
	if !ok {
		return domain.Job{}, fmt.Errorf("site %s: %w", siteID, store.ErrNotFound)
	}
	if j.Type == "" {
		j.Type = domain.TypeElectric
	}
	if j.Status == "" {
		j.Status = domain.StatusTodo
	}
	if !domain.ValidJobType(j.Type) {
		return domain.Job{}, fmt.Errorf("invalid job type %q", j.Type)
	}
	if !domain.ValidStatus(j.Status) {
		return domain.Job{}, fmt.Errorf("invalid job status %q", j.Status)
	}
	if err := validDate(j.StartDate); err != nil {
		return domain.Job{}, fmt.Errorf("start date: %w", err)
	}
	if err := validDate(j.EndDate); err != nil {
		return domain.Job{}, fmt.Errorf("end date: %w", err)
	}
	j.SiteID = site.ID
	j.SiteName = site.Name
	if client, ok := e.Client(site.ClientID); ok {
		j.ClientName = client.Name
	} else {
		j.ClientName = site.ClientName
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	return e.Store.CreateJob(ctx, j)
}

func (e *Engine) UpdateJob(ctx context.Context, id string, f store.JobFields) error {
	if f.Type != nil && !domain.ValidJobType(*f.Type) {
		return fmt.Errorf("invalid job type %q", *f.Type)
	}
	if f.Status != nil && !domain.ValidStatus(*f.Status) {
		return fmt.Errorf("invalid job status %q", *f.Status)
	}
	if f.StartDate != nil {
		if err := validDate(*f.StartDate); err != nil {
			return fmt.Errorf("start date: %w", err)
		}
	}
	if f.EndDate != nil {
		if err := validDate(*f.EndDate); err != nil {
			return fmt.Errorf("end date: %w", err)
		}
	}
	if f.Status != nil {
		j, ok := e.Job(id)
		if !ok {
			return fmt.Errorf("job %s: %w", id, store.ErrNotFound)
		}
		// Guard against closing via edit with the end date the record would
		// have after this update.
		if f.EndDate != nil {
			j.EndDate = *f.EndDate
		}
		if err := CanSetStatus(j, *f.Status); err != nil {
			return err
		}
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return err
	}
	return e.Store.UpdateJob(ctx, id, f)
}

// SetJobStatus changes only the status, subject to the transition guard.
func (e *Engine) SetJobStatus(ctx context.Context, id, status string) error {
	if !domain.ValidStatus(status) {
		return fmt.Errorf("invalid job status %q", status)
	}
	j, ok := e.Job(id)
	if !ok {
		return fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	if err := CanSetStatus(j, status); err != nil {
		return err
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return err
	}
	return e.Store.SetJobStatus(ctx, id, status)
}

func validDate(d string) error {
	if d == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
	}
	return nil
}
