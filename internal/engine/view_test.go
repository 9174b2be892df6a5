package engine

import (
	"reflect"
	"testing"

	"ritech/internal/domain"
)

// fixture returns one client with two sites: S1 has a priority job and a done
// job, S2 has a plain open job created earlier.
func fixture() ([]domain.Client, []domain.Site, []domain.Job) {
	clients := []domain.Client{{ID: "c1", Name: "Rossi Impianti", CreatedAt: 10}}
	sites := []domain.Site{
		{ID: "s1", ClientID: "c1", Name: "Magazzino", CreatedAt: 20},
		{ID: "s2", ClientID: "c1", Name: "Uffici", CreatedAt: 21},
	}
	jobs := []domain.Job{
		{ID: "j-done", SiteID: "s1", Status: domain.StatusDone, EndDate: "2024-03-01", Description: "collaudo", CreatedAt: 100},
		{ID: "j-open", SiteID: "s2", Status: domain.StatusTodo, Description: "sostituzione telecamera", CreatedAt: 50},
		{ID: "j-prio", SiteID: "s1", Status: domain.StatusProgress, IsPriority: true, Description: "allarme guasto", CreatedAt: 200},
	}
	return clients, sites, jobs
}

func TestProjectJobOrdering(t *testing.T) {
	clients, sites, jobs := fixture()
	v := Project(clients, sites, jobs, Scope{})
	got := make([]string, 0, len(v.Jobs))
	for _, j := range v.Jobs {
		got = append(got, j.ID)
	}
	want := []string{"j-prio", "j-open", "j-done"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("job order = %v, want %v", got, want)
	}
}

func TestProjectSitesInheritUrgency(t *testing.T) {
	clients, sites, jobs := fixture()
	v := Project(clients, sites, jobs, Scope{})
	// S1 holds the priority job, so it outranks S2 despite also holding the
	// done job.
	if v.Sites[0].ID != "s1" || v.Sites[1].ID != "s2" {
		t.Fatalf("site order = %s, %s", v.Sites[0].ID, v.Sites[1].ID)
	}
	if !v.Sites[0].NeedsAttention || !v.Sites[1].NeedsAttention {
		t.Fatal("both sites have open work and should need attention")
	}
	if v.Sites[0].ActiveJobs != 1 {
		t.Fatalf("s1 active jobs = %d, want 1", v.Sites[0].ActiveJobs)
	}
	if v.Clients[0].Score != v.Sites[0].Score {
		t.Fatal("client score must equal its most urgent site's score")
	}
	if v.Clients[0].ActiveSites != 2 {
		t.Fatalf("active sites = %d, want 2", v.Clients[0].ActiveSites)
	}
}

func TestProjectIsPure(t *testing.T) {
	clients, sites, jobs := fixture()
	a := Project(clients, sites, jobs, Scope{})
	b := Project(clients, sites, jobs, Scope{})
	if !reflect.DeepEqual(a, b) {
		t.Fatal("projection must be deterministic for identical snapshots")
	}
}

func TestProjectHidesOrphans(t *testing.T) {
	clients, sites, jobs := fixture()
	// Remove the client: its sites and their jobs must disappear everywhere,
	// including the counters.
	v := Project(nil, sites, jobs, Scope{})
	if len(v.Sites) != 0 || len(v.Jobs) != 0 {
		t.Fatalf("orphans leaked: %d sites, %d jobs", len(v.Sites), len(v.Jobs))
	}
	if v.OpenJobs != 0 || v.ValidSites != 0 || len(v.PriorityJobs) != 0 {
		t.Fatalf("counters leaked orphans: %+v", v)
	}

	// Remove one site: only its job disappears, transitively.
	v = Project(clients, sites[:1], jobs, Scope{})
	for _, j := range v.Jobs {
		if j.SiteID == "s2" {
			t.Fatal("job of removed site survived the filter")
		}
	}
}

func TestProjectScope(t *testing.T) {
	clients, sites, jobs := fixture()
	v := Project(clients, sites, jobs, Scope{SiteID: "s1"})
	if len(v.Jobs) != 2 {
		t.Fatalf("site scope jobs = %d, want 2", len(v.Jobs))
	}
	// Counters ignore scope.
	if v.OpenJobs != 2 || v.ValidSites != 2 {
		t.Fatalf("counters must be global: open=%d sites=%d", v.OpenJobs, v.ValidSites)
	}

	v = Project(clients, sites, jobs, Scope{ClientID: "c1"})
	if len(v.Sites) != 2 {
		t.Fatalf("client scope sites = %d, want 2", len(v.Sites))
	}
}

func TestProjectSearch(t *testing.T) {
	clients, sites, jobs := fixture()
	v := Project(clients, sites, jobs, Scope{Search: "TELECAMERA"})
	if len(v.Jobs) != 1 || v.Jobs[0].ID != "j-open" {
		t.Fatalf("search hit = %+v", v.Jobs)
	}
	v = Project(clients, sites, jobs, Scope{Search: "uffici"})
	if len(v.Sites) != 1 || v.Sites[0].ID != "s2" {
		t.Fatalf("site search hit = %+v", v.Sites)
	}
	if len(v.Clients) != 0 {
		t.Fatal("client list should be empty when no client name matches")
	}
	// Counters still global under search.
	if v.OpenJobs != 2 {
		t.Fatalf("open jobs under search = %d, want 2", v.OpenJobs)
	}
}

func TestProjectPriorityListOldestFirst(t *testing.T) {
	clients := []domain.Client{{ID: "c1", Name: "A"}}
	sites := []domain.Site{{ID: "s1", ClientID: "c1", Name: "S"}}
	jobs := []domain.Job{
		{ID: "late", SiteID: "s1", Status: domain.StatusTodo, IsPriority: true, CreatedAt: 900},
		{ID: "early", SiteID: "s1", Status: domain.StatusTodo, IsPriority: true, CreatedAt: 100},
		{ID: "pending", SiteID: "s1", Status: domain.StatusTodo, IsPriority: true},
	}
	v := Project(clients, sites, jobs, Scope{})
	got := make([]string, 0, len(v.PriorityJobs))
	for _, j := range v.PriorityJobs {
		got = append(got, j.ID)
	}
	// A pending creation clock counts as zero here, so it leads the list.
	want := []string{"pending", "early", "late"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("priority order = %v, want %v", got, want)
	}
}

func TestSiteWithoutJobsSortsLast(t *testing.T) {
	clients := []domain.Client{{ID: "c", Name: "C"}}
	sites := []domain.Site{
		{ID: "s1", ClientID: "c", Name: "Vuoto"},
		{ID: "s2", ClientID: "c", Name: "Attivo"},
	}
	jobs := []domain.Job{
		{ID: "j1", SiteID: "s2", Status: domain.StatusTodo, IsPriority: true, CreatedAt: 10},
		{ID: "j2", SiteID: "s2", Status: domain.StatusDone, EndDate: "2024-01-01", CreatedAt: 5},
	}
	v := Project(clients, sites, jobs, Scope{})
	if v.Sites[0].ID != "s2" || v.Sites[1].ID != "s1" {
		t.Fatalf("site order = %s, %s", v.Sites[0].ID, v.Sites[1].ID)
	}
	want := JobScore(jobs[0])
	if v.Sites[0].Score != want || v.Clients[0].Score != want {
		t.Fatalf("scores: site=%d client=%d want=%d", v.Sites[0].Score, v.Clients[0].Score, want)
	}
	if v.Sites[1].NeedsAttention {
		t.Fatal("a site with no jobs must not need attention")
	}
}

func TestValidJobsTransitivity(t *testing.T) {
	sites := []domain.Site{{ID: "s1", ClientID: "gone"}}
	jobs := []domain.Job{{ID: "j1", SiteID: "s1"}}
	valid := ValidSites(sites, nil)
	if got := ValidJobs(jobs, valid); len(got) != 0 {
		t.Fatal("job under an orphaned site must be invalid too")
	}
}
