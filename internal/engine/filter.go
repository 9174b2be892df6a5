package engine

import "ritech/internal/domain"

// ValidSites returns the sites whose parent client exists in the current
// client snapshot. Orphans are silently excluded; the three feeds update
// independently and a dangling reference is an expected transient, not an
// error.
func ValidSites(sites []domain.Site, clients []domain.Client) []domain.Site {
	ids := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		ids[c.ID] = struct{}{}
	}
	var res []domain.Site
	for _, s := range sites {
		if _, ok := ids[s.ClientID]; ok {
			res = append(res, s)
		}
	}
	return res
}

// ValidJobs returns the jobs whose parent site is in the already-filtered
// valid-sites set. Checking against the filtered set, not the raw snapshot,
// makes invalidity transitive through the whole ownership chain without a
// second lookup against clients.
func ValidJobs(jobs []domain.Job, validSites []domain.Site) []domain.Job {
	ids := make(map[string]struct{}, len(validSites))
	for _, s := range validSites {
		ids[s.ID] = struct{}{}
	}
	var res []domain.Job
	for _, j := range jobs {
		if _, ok := ids[j.SiteID]; ok {
			res = append(res, j)
		}
	}
	return res
}
