package engine

import (
	"time"

	"ritech/internal/domain"
)

// Urgency scores are int64s where lower sorts first (more urgent). Three
// disjoint bands strictly separate priority-open, open, and closed jobs:
// within-band values are creation-clock offsets (seconds) or end-date recency
// offsets (milliseconds), both far smaller than the band width, so no band
// can ever bleed into the next.
const (
	bandPriority int64 = 10_000_000_000
	bandOpen     int64 = 20_000_000_000
	bandClosed   int64 = 30_000_000_000

	// createdAtPending stands in for a creation clock that has not yet
	// round-tripped from the store; it pushes brand-new jobs to the end of
	// their band instead of surfacing them as most urgent.
	createdAtPending int64 = 9_999_999_999

	// maxEndClock inverts end-date millis so recently closed jobs sort ahead
	// of long-closed ones within the closed band.
	maxEndClock int64 = 9_999_999_999_999

	// scoreNone ranks entities with no jobs at all after everything else.
	scoreNone int64 = 9_999_999_999_999
)

// JobScore computes the orderable urgency score of a single job.
func JobScore(j domain.Job) int64 {
	created := j.CreatedAt
	if created == 0 {
		created = createdAtPending
	}
	if j.IsOpen() {
		if j.IsPriority {
			return bandPriority + created
		}
		return bandOpen + created
	}
	return bandClosed + (maxEndClock - endDateClock(j.EndDate))
}

// endDateClock parses a YYYY-MM-DD end date into unix milliseconds. A missing
// or malformed date counts as epoch start, ranking the job least recently
// closed.
func endDateClock(endDate string) int64 {
	if endDate == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// SiteScore is the minimum score among the site's valid jobs; a site with no
// jobs ranks last.
func SiteScore(site domain.Site, validJobs []domain.Job) int64 {
	best := scoreNone
	seen := false
	for _, j := range validJobs {
		if j.SiteID != site.ID {
			continue
		}
		if s := JobScore(j); !seen || s < best {
			best = s
			seen = true
		}
	}
	return best
}

// ClientScore is the minimum score among the client's scored sites. The most
// urgent job anywhere under a client decides its rank; a sum or average would
// dilute a single emergency under a pile of closed work.
func ClientScore(clientID string, sites []SiteView) int64 {
	best := scoreNone
	seen := false
	for _, s := range sites {
		if s.ClientID != clientID {
			continue
		}
		if !seen || s.Score < best {
			best = s.Score
			seen = true
		}
	}
	return best
}

// NeedsAttention reports whether a score implies at least one open descendant
// job. Display-only; never used for filtering.
func NeedsAttention(score int64) bool {
	return score < bandClosed
}
