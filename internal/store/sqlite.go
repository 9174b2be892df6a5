package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ritech/internal/auth"
	"ritech/internal/domain"
	"ritech/internal/events"
)

// SQLite implements Store on a local SQLite database. Every mutation commits,
// appends an audit event in the same transaction, then re-reads the affected
// collection and pushes the fresh snapshot to subscribers synchronously.
type SQLite struct {
	DB     *sql.DB
	Events events.Writer
	Now    func() time.Time

	mu         sync.Mutex
	nextSub    int
	clientSubs map[int]func([]domain.Client)
	siteSubs   map[int]func([]domain.Site)
	jobSubs    map[int]func([]domain.Job)
}

func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{
		DB:         conn,
		Events:     events.Writer{DB: conn},
		Now:        time.Now,
		clientSubs: map[int]func([]domain.Client){},
		siteSubs:   map[int]func([]domain.Site){},
		jobSubs:    map[int]func([]domain.Job){},
	}
}

func (s *SQLite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// --- subscriptions ---

func (s *SQLite) SubscribeClients(fn func([]domain.Client)) (func(), error) {
	snap, err := s.loadClients(context.Background())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.clientSubs[id] = fn
	s.mu.Unlock()
	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.clientSubs, id)
		s.mu.Unlock()
	}, nil
}

func (s *SQLite) SubscribeSites(fn func([]domain.Site)) (func(), error) {
	snap, err := s.loadSites(context.Background())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.siteSubs[id] = fn
	s.mu.Unlock()
	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.siteSubs, id)
		s.mu.Unlock()
	}, nil
}

func (s *SQLite) SubscribeJobs(fn func([]domain.Job)) (func(), error) {
	snap, err := s.loadJobs(context.Background())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.jobSubs[id] = fn
	s.mu.Unlock()
	fn(snap)
	return func() {
		s.mu.Lock()
		delete(s.jobSubs, id)
		s.mu.Unlock()
	}, nil
}

func (s *SQLite) notifyClients(ctx context.Context) {
	snap, err := s.loadClients(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	subs := make([]func([]domain.Client), 0, len(s.clientSubs))
	for _, fn := range s.clientSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *SQLite) notifySites(ctx context.Context) {
	snap, err := s.loadSites(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	subs := make([]func([]domain.Site), 0, len(s.siteSubs))
	for _, fn := range s.siteSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *SQLite) notifyJobs(ctx context.Context) {
	snap, err := s.loadJobs(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	subs := make([]func([]domain.Job), 0, len(s.jobSubs))
	for _, fn := range s.jobSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// --- loading ---

func (s *SQLite) loadClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,name,COALESCE(created_at,0) FROM clients ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *SQLite) loadSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,client_id,name,COALESCE(client_name,''),COALESCE(created_at,0) FROM sites ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Site
	for rows.Next() {
		var st domain.Site
		if err := rows.Scan(&st.ID, &st.ClientID, &st.Name, &st.ClientName, &st.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *SQLite) loadJobs(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,site_id,COALESCE(client_name,''),COALESCE(site_name,''),type,status,description,
COALESCE(offer_ref,''),COALESCE(technician_notes,''),is_priority,COALESCE(start_date,''),COALESCE(end_date,''),COALESCE(created_at,0)
FROM jobs ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Job
	for rows.Next() {
		var j domain.Job
		var prio int
		if err := rows.Scan(&j.ID, &j.SiteID, &j.ClientName, &j.SiteName, &j.Type, &j.Status, &j.Description,
			&j.OfferRef, &j.TechnicianNotes, &prio, &j.StartDate, &j.EndDate, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.IsPriority = prio != 0
		res = append(res, j)
	}
	return res, rows.Err()
}

// --- clients ---

func (s *SQLite) CreateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().Unix()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Client{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO clients(id,name,created_at) VALUES (?,?,?)`,
		c.ID, c.Name, c.CreatedAt); err != nil {
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}
	if err := s.Events.Append(ctx, tx, "client.created", "client", c.ID, auth.ActorFrom(ctx), events.EventPayload{"name": c.Name}); err != nil {
		return domain.Client{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Client{}, err
	}
	s.notifyClients(ctx)
	return c, nil
}

func (s *SQLite) UpdateClient(ctx context.Context, id string, f ClientFields) error {
	var (
		fields []string
		args   []any
	)
	if f.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *f.Name)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.exec(ctx, "client.updated", "client", id,
		fmt.Sprintf(`UPDATE clients SET %s WHERE id=?`, strings.Join(fields, ",")), append(args, id)...); err != nil {
		return err
	}
	s.notifyClients(ctx)
	return nil
}

func (s *SQLite) DeleteClient(ctx context.Context, id string) error {
	if err := s.exec(ctx, "client.deleted", "client", id, `DELETE FROM clients WHERE id=?`, id); err != nil {
		return err
	}
	s.notifyClients(ctx)
	return nil
}

// --- sites ---

func (s *SQLite) CreateSite(ctx context.Context, st domain.Site) (domain.Site, error) {
	st.ID = uuid.NewString()
	st.CreatedAt = s.now().Unix()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Site{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO sites(id,client_id,name,client_name,created_at) VALUES (?,?,?,?,?)`,
		st.ID, st.ClientID, st.Name, nullableStr(st.ClientName), st.CreatedAt); err != nil {
		return domain.Site{}, fmt.Errorf("insert site: %w", err)
	}
	if err := s.Events.Append(ctx, tx, "site.created", "site", st.ID, auth.ActorFrom(ctx), events.EventPayload{"name": st.Name, "client_id": st.ClientID}); err != nil {
		return domain.Site{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Site{}, err
	}
	s.notifySites(ctx)
	return st, nil
}

func (s *SQLite) UpdateSite(ctx context.Context, id string, f SiteFields) error {
	var (
		fields []string
		args   []any
	)
	if f.Name != nil {
		fields = append(fields, "name=?")
		args = append(args, *f.Name)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.exec(ctx, "site.updated", "site", id,
		fmt.Sprintf(`UPDATE sites SET %s WHERE id=?`, strings.Join(fields, ",")), append(args, id)...); err != nil {
		return err
	}
	s.notifySites(ctx)
	return nil
}

func (s *SQLite) DeleteSite(ctx context.Context, id string) error {
	if err := s.exec(ctx, "site.deleted", "site", id, `DELETE FROM sites WHERE id=?`, id); err != nil {
		return err
	}
	s.notifySites(ctx)
	return nil
}

// --- jobs ---

func (s *SQLite) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	j.ID = uuid.NewString()
	j.CreatedAt = s.now().Unix()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Job{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO jobs(id,site_id,client_name,site_name,type,status,description,offer_ref,technician_notes,is_priority,start_date,end_date,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		j.ID, j.SiteID, nullableStr(j.ClientName), nullableStr(j.SiteName), j.Type, j.Status, j.Description,
		nullableStr(j.OfferRef), nullableStr(j.TechnicianNotes), boolInt(j.IsPriority),
		nullableStr(j.StartDate), nullableStr(j.EndDate), j.CreatedAt); err != nil {
		return domain.Job{}, fmt.Errorf("insert job: %w", err)
	}
	if err := s.Events.Append(ctx, tx, "job.created", "job", j.ID, auth.ActorFrom(ctx), events.EventPayload{
		"site_id": j.SiteID, "type": j.Type, "status": j.Status, "priority": j.IsPriority,
	}); err != nil {
		return domain.Job{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Job{}, err
	}
	s.notifyJobs(ctx)
	return j, nil
}

func (s *SQLite) UpdateJob(ctx context.Context, id string, f JobFields) error {
	var (
		fields []string
		args   []any
	)
	set := func(col string, v any) {
		fields = append(fields, col+"=?")
		args = append(args, v)
	}
	if f.Type != nil {
		set("type", *f.Type)
	}
	if f.Status != nil {
		set("status", *f.Status)
	}
	if f.Description != nil {
		set("description", *f.Description)
	}
	if f.OfferRef != nil {
		set("offer_ref", nullableStr(*f.OfferRef))
	}
	if f.TechnicianNotes != nil {
		set("technician_notes", nullableStr(*f.TechnicianNotes))
	}
	if f.IsPriority != nil {
		set("is_priority", boolInt(*f.IsPriority))
	}
	if f.StartDate != nil {
		set("start_date", nullableStr(*f.StartDate))
	}
	if f.EndDate != nil {
		set("end_date", nullableStr(*f.EndDate))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.exec(ctx, "job.updated", "job", id,
		fmt.Sprintf(`UPDATE jobs SET %s WHERE id=?`, strings.Join(fields, ",")), append(args, id)...); err != nil {
		return err
	}
	s.notifyJobs(ctx)
	return nil
}

func (s *SQLite) SetJobStatus(ctx context.Context, id, status string) error {
	if err := s.exec(ctx, "job.status.changed", "job", id, `UPDATE jobs SET status=? WHERE id=?`, status, id); err != nil {
		return err
	}
	s.notifyJobs(ctx)
	return nil
}

func (s *SQLite) DeleteJob(ctx context.Context, id string) error {
	if err := s.exec(ctx, "job.deleted", "job", id, `DELETE FROM jobs WHERE id=?`, id); err != nil {
		return err
	}
	s.notifyJobs(ctx)
	return nil
}

// exec runs a single-row mutation plus its audit event in one transaction.
// Zero affected rows means the record is gone and maps to ErrNotFound.
func (s *SQLite) exec(ctx context.Context, evtType, entityKind, entityID, query string, args ...any) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := s.Events.Append(ctx, tx, evtType, entityKind, entityID, auth.ActorFrom(ctx), nil); err != nil {
		return err
	}
	return tx.Commit()
}

// --- settings ---

func (s *SQLite) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

func (s *SQLite) PutSetting(ctx context.Context, key, value string) error {
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO settings(key,value,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value, now)
	return err
}

func nullableStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
