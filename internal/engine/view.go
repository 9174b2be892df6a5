package engine

import (
	"sort"
	"strings"

	"ritech/internal/domain"
)

// Scope narrows a projection to one client or site and/or a free-text search
// term. Zero value means everything.
type Scope struct {
	ClientID string
	SiteID   string
	Search   string
}

type ClientView struct {
	domain.Client
	Score          int64 `json:"score"`
	ActiveSites    int   `json:"active_sites"`
	NeedsAttention bool  `json:"needs_attention"`
}

type SiteView struct {
	domain.Site
	Score          int64 `json:"score"`
	ActiveJobs     int   `json:"active_jobs"`
	NeedsAttention bool  `json:"needs_attention"`
}

type JobView struct {
	domain.Job
	Score int64 `json:"score"`
}

// View is one consistent projection of the three snapshots: the ordered lists
// the presentation layer renders plus the global counters, which ignore scope.
type View struct {
	Clients      []ClientView `json:"clients"`
	Sites        []SiteView   `json:"sites"`
	Jobs         []JobView    `json:"jobs"`
	OpenJobs     int          `json:"open_jobs"`
	ValidSites   int          `json:"valid_sites"`
	PriorityJobs []JobView    `json:"priority_jobs"`
}

// Project runs the full filter -> score -> sort pipeline over raw snapshots.
// Pure: same inputs, same output, every time. Ties keep snapshot order.
func Project(clients []domain.Client, sites []domain.Site, jobs []domain.Job, scope Scope) View {
	validSites := ValidSites(sites, clients)
	validJobs := ValidJobs(jobs, validSites)

	openBySite := make(map[string]int)
	for _, j := range validJobs {
		if j.IsOpen() {
			openBySite[j.SiteID]++
		}
	}

	scoredSites := make([]SiteView, 0, len(validSites))
	for _, s := range validSites {
		score := SiteScore(s, validJobs)
		scoredSites = append(scoredSites, SiteView{
			Site:           s,
			Score:          score,
			ActiveJobs:     openBySite[s.ID],
			NeedsAttention: NeedsAttention(score),
		})
	}
	sort.SliceStable(scoredSites, func(i, k int) bool { return scoredSites[i].Score < scoredSites[k].Score })

	activeSitesByClient := make(map[string]int)
	for _, s := range scoredSites {
		if s.ActiveJobs > 0 {
			activeSitesByClient[s.ClientID]++
		}
	}

	scoredClients := make([]ClientView, 0, len(clients))
	for _, c := range clients {
		score := ClientScore(c.ID, scoredSites)
		scoredClients = append(scoredClients, ClientView{
			Client:         c,
			Score:          score,
			ActiveSites:    activeSitesByClient[c.ID],
			NeedsAttention: NeedsAttention(score),
		})
	}
	sort.SliceStable(scoredClients, func(i, k int) bool { return scoredClients[i].Score < scoredClients[k].Score })

	term := strings.ToLower(scope.Search)

	var outClients []ClientView
	for _, c := range scoredClients {
		if term != "" && !strings.Contains(strings.ToLower(c.Name), term) {
			continue
		}
		outClients = append(outClients, c)
	}

	var outSites []SiteView
	for _, s := range scoredSites {
		if scope.ClientID != "" && s.ClientID != scope.ClientID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(s.Name), term) {
			continue
		}
		outSites = append(outSites, s)
	}

	var outJobs []JobView
	for _, j := range validJobs {
		if scope.SiteID != "" && j.SiteID != scope.SiteID {
			continue
		}
		if term != "" && !jobMatches(j, term) {
			continue
		}
		outJobs = append(outJobs, JobView{Job: j, Score: JobScore(j)})
	}
	sort.SliceStable(outJobs, func(i, k int) bool { return outJobs[i].Score < outJobs[k].Score })

	openJobs := 0
	var priority []JobView
	for _, j := range validJobs {
		if !j.IsOpen() {
			continue
		}
		openJobs++
		if j.IsPriority {
			priority = append(priority, JobView{Job: j, Score: JobScore(j)})
		}
	}
	// Oldest emergency first. A pending creation clock counts as zero here,
	// matching the dashboard list rather than the urgency bands.
	sort.SliceStable(priority, func(i, k int) bool { return priority[i].CreatedAt < priority[k].CreatedAt })

	return View{
		Clients:      outClients,
		Sites:        outSites,
		Jobs:         outJobs,
		OpenJobs:     openJobs,
		ValidSites:   len(validSites),
		PriorityJobs: priority,
	}
}

func jobMatches(j domain.Job, term string) bool {
	return strings.Contains(strings.ToLower(j.Description), term) ||
		strings.Contains(strings.ToLower(j.OfferRef), term) ||
		strings.Contains(strings.ToLower(j.TechnicianNotes), term)
}
