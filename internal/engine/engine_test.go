package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ritech/internal/auth"
	"ritech/internal/db"
	"ritech/internal/domain"
	"ritech/internal/engine"
	"ritech/internal/migrate"
	"ritech/internal/store"
)

type testEnv struct {
	Engine *engine.Engine
	Store  *store.SQLite
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.NewSQLite(conn)
	st.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	eng, err := engine.New(st, auth.NewLocal("test-secret", "tester"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return testEnv{Engine: eng, Store: st, Ctx: context.Background()}
}

// seed creates one client, two sites and two jobs and returns their records.
func seed(t *testing.T, env testEnv) (domain.Client, domain.Site, domain.Site, domain.Job, domain.Job) {
	t.Helper()
	c, err := env.Engine.AddClient(env.Ctx, "Bianchi SRL")
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	s1, err := env.Engine.AddSite(env.Ctx, c.ID, "Capannone")
	if err != nil {
		t.Fatalf("add site 1: %v", err)
	}
	s2, err := env.Engine.AddSite(env.Ctx, c.ID, "Negozio")
	if err != nil {
		t.Fatalf("add site 2: %v", err)
	}
	j1, err := env.Engine.AddJob(env.Ctx, s1.ID, domain.Job{Type: domain.TypeCCTV, Description: "nuovo impianto"})
	if err != nil {
		t.Fatalf("add job 1: %v", err)
	}
	j2, err := env.Engine.AddJob(env.Ctx, s2.ID, domain.Job{Type: domain.TypeAlarm, Description: "manutenzione", IsPriority: true})
	if err != nil {
		t.Fatalf("add job 2: %v", err)
	}
	return c, s1, s2, j1, j2
}

func TestAddHierarchyAndView(t *testing.T) {
	env := newTestEnv(t)
	c, s1, _, _, j2 := seed(t, env)

	v := env.Engine.View(engine.Scope{})
	if len(v.Clients) != 1 || len(v.Sites) != 2 || len(v.Jobs) != 2 {
		t.Fatalf("view sizes = %d/%d/%d", len(v.Clients), len(v.Sites), len(v.Jobs))
	}
	if v.Jobs[0].ID != j2.ID {
		t.Fatalf("priority job must lead, got %s", v.Jobs[0].ID)
	}
	if v.OpenJobs != 2 || v.ValidSites != 2 {
		t.Fatalf("counters = open %d, sites %d", v.OpenJobs, v.ValidSites)
	}
	if len(v.PriorityJobs) != 1 || v.PriorityJobs[0].ID != j2.ID {
		t.Fatalf("priority list = %+v", v.PriorityJobs)
	}
	if v.Sites[0].ClientName != c.Name {
		t.Fatalf("site missing client name snapshot: %q", v.Sites[0].ClientName)
	}
	if got, ok := env.Engine.SiteOf(v.Jobs[1].Job); !ok || got.ID != s1.ID {
		t.Fatalf("SiteOf = %+v, ok=%v", got, ok)
	}
}

func TestAddJobDefaults(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.Engine.AddClient(env.Ctx, "X")
	s, _ := env.Engine.AddSite(env.Ctx, c.ID, "Y")
	j, err := env.Engine.AddJob(env.Ctx, s.ID, domain.Job{Description: "solo descrizione"})
	if err != nil {
		t.Fatalf("add job: %v", err)
	}
	if j.Type != domain.TypeElectric || j.Status != domain.StatusTodo {
		t.Fatalf("defaults = %s/%s", j.Type, j.Status)
	}
	if j.CreatedAt == 0 {
		t.Fatal("store must assign a creation clock")
	}
	if j.ClientName != "X" || j.SiteName != "Y" {
		t.Fatalf("name snapshots = %q/%q", j.ClientName, j.SiteName)
	}
}

func TestAddValidation(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.AddClient(env.Ctx, "   "); err == nil {
		t.Fatal("blank client name must be rejected")
	}
	c, _ := env.Engine.AddClient(env.Ctx, "C")
	if _, err := env.Engine.AddSite(env.Ctx, "no-such-client", "S"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	s, _ := env.Engine.AddSite(env.Ctx, c.ID, "S")
	if _, err := env.Engine.AddJob(env.Ctx, s.ID, domain.Job{Description: "d", Type: "plumbing"}); err == nil {
		t.Fatal("unknown job type must be rejected")
	}
	if _, err := env.Engine.AddJob(env.Ctx, s.ID, domain.Job{Description: "d", StartDate: "01/02/2024"}); err == nil {
		t.Fatal("malformed date must be rejected")
	}
}

func TestSetJobStatusGuard(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, j1, _ := seed(t, env)

	err := env.Engine.SetJobStatus(env.Ctx, j1.ID, domain.StatusDone)
	var te engine.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("want TransitionError, got %v", err)
	}
	// The job must be untouched after the rejection.
	if j, _ := env.Engine.Job(j1.ID); j.Status != j1.Status {
		t.Fatalf("status mutated after rejection: %s", j.Status)
	}

	end := "2024-02-01"
	if err := env.Engine.UpdateJob(env.Ctx, j1.ID, store.JobFields{EndDate: &end}); err != nil {
		t.Fatalf("set end date: %v", err)
	}
	if err := env.Engine.SetJobStatus(env.Ctx, j1.ID, domain.StatusDone); err != nil {
		t.Fatalf("complete with end date: %v", err)
	}
	if j, _ := env.Engine.Job(j1.ID); j.Status != domain.StatusDone {
		t.Fatalf("status = %s", j.Status)
	}
}

func TestUpdateJobCombinedCompletion(t *testing.T) {
	env := newTestEnv(t)
	_, _, _, j1, _ := seed(t, env)

	done := domain.StatusDone
	end := "2024-02-01"
	// Setting status and end date in the same edit is allowed; the guard sees
	// the record as it would be after the update.
	if err := env.Engine.UpdateJob(env.Ctx, j1.ID, store.JobFields{Status: &done, EndDate: &end}); err != nil {
		t.Fatalf("combined completion: %v", err)
	}
	// Status alone without an end date on record is not.
	j2, _ := env.Engine.AddJob(env.Ctx, j1.SiteID, domain.Job{Description: "altro"})
	if err := env.Engine.UpdateJob(env.Ctx, j2.ID, store.JobFields{Status: &done}); err == nil {
		t.Fatal("completion without end date must be rejected")
	}
}

func TestSnapshotRefreshAfterMutation(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.Engine.AddClient(env.Ctx, "Prima")
	name := "Dopo"
	if err := env.Engine.UpdateClient(env.Ctx, c.ID, store.ClientFields{Name: &name}); err != nil {
		t.Fatalf("update client: %v", err)
	}
	// The store pushes a fresh snapshot synchronously after every mutation.
	if got, _ := env.Engine.Client(c.ID); got.Name != "Dopo" {
		t.Fatalf("engine snapshot stale: %q", got.Name)
	}
	if got, _ := env.Engine.Client(c.ID); got.CreatedAt != c.CreatedAt {
		t.Fatal("partial update must not change created_at")
	}
}

func TestCascadeDeleteClient(t *testing.T) {
	env := newTestEnv(t)
	c, s1, s2, j1, j2 := seed(t, env)

	result, err := env.Engine.Delete(env.Ctx, engine.LevelClient, c.ID)
	if err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if len(result.Deleted) != 5 || result.FailedAt != nil {
		t.Fatalf("cascade result = %+v", result)
	}
	// Deepest first: both jobs precede their sites, the client comes last.
	last := result.Deleted[len(result.Deleted)-1]
	if last.Level != engine.LevelClient || last.ID != c.ID {
		t.Fatalf("client not deleted last: %+v", last)
	}
	pos := map[string]int{}
	for i, step := range result.Deleted {
		pos[step.ID] = i
	}
	if pos[j1.ID] > pos[s1.ID] || pos[j2.ID] > pos[s2.ID] {
		t.Fatalf("jobs must be deleted before their sites: %+v", result.Deleted)
	}

	v := env.Engine.View(engine.Scope{})
	if len(v.Clients)+len(v.Sites)+len(v.Jobs) != 0 {
		t.Fatalf("records survived cascade: %+v", v)
	}
}

// flakyStore fails site deletions to exercise the halt-on-first-failure path.
type flakyStore struct {
	*store.SQLite
}

func (f flakyStore) DeleteSite(ctx context.Context, id string) error {
	return fmt.Errorf("disk full")
}

func TestCascadeDeleteHaltsOnFailure(t *testing.T) {
	env := newTestEnv(t)
	c, s1, _, _, _ := seed(t, env)

	eng, err := engine.New(flakyStore{env.Store}, auth.NewLocal("test-secret", "tester"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	_, err = eng.Delete(env.Ctx, engine.LevelClient, c.ID)
	var ce *engine.CascadeError
	if !errors.As(err, &ce) {
		t.Fatalf("want CascadeError, got %v", err)
	}
	if ce.Result.FailedAt == nil || ce.Result.FailedAt.Level != engine.LevelSite {
		t.Fatalf("failure step = %+v", ce.Result.FailedAt)
	}
	// Jobs before the failed site are gone; everything after is intact.
	if len(ce.Result.Deleted) == 0 {
		t.Fatal("no progress recorded before the failure")
	}
	if _, ok := eng.Site(s1.ID); !ok {
		t.Fatal("failed site must survive")
	}
	if _, ok := eng.Client(c.ID); !ok {
		t.Fatal("client must survive a halted cascade")
	}
	// The surviving site's jobs were deleted, so the hierarchy is consistent
	// again after a retry against the healthy store.
	if _, err := env.Engine.Delete(env.Ctx, engine.LevelClient, c.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestDeleteInvalidLevel(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.Delete(env.Ctx, engine.Level("warehouse"), "x"); err == nil {
		t.Fatal("invalid level must be rejected")
	}
}

// downAuth never yields a session.
type downAuth struct{}

func (downAuth) Current() (auth.Session, bool) { return auth.Session{}, false }
func (downAuth) Reauthenticate(ctx context.Context) (auth.Session, error) {
	return auth.Session{}, auth.ErrUnavailable
}

func TestWritesBlockedWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	c, _, _, j1, _ := seed(t, env)

	eng, err := engine.New(env.Store, downAuth{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := eng.AddClient(env.Ctx, "Nuovo"); !errors.Is(err, auth.ErrUnavailable) {
		t.Fatalf("add client: %v", err)
	}
	name := "x"
	if err := eng.UpdateClient(env.Ctx, c.ID, store.ClientFields{Name: &name}); !errors.Is(err, auth.ErrUnavailable) {
		t.Fatalf("update client: %v", err)
	}
	if _, err := eng.Delete(env.Ctx, engine.LevelJob, j1.ID); !errors.Is(err, auth.ErrUnavailable) {
		t.Fatalf("delete job: %v", err)
	}
	// Reads keep working: the engine renders its snapshots regardless of the
	// session state.
	if v := eng.View(engine.Scope{}); len(v.Jobs) != 2 {
		t.Fatalf("read blocked: %d jobs", len(v.Jobs))
	}
}

func TestLazyReauthentication(t *testing.T) {
	env := newTestEnv(t)
	authn := auth.NewLocal("test-secret", "tester")
	eng, err := engine.New(env.Store, authn)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, ok := authn.Current(); ok {
		t.Fatal("no session should exist before the first write")
	}
	if _, err := eng.AddClient(env.Ctx, "Primo"); err != nil {
		t.Fatalf("add client: %v", err)
	}
	if _, ok := authn.Current(); !ok {
		t.Fatal("the first write must have established a session")
	}
}
