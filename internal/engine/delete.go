package engine

import (
	"context"
	"fmt"

	"ritech/internal/domain"
)

// Level is a hierarchy level a delete can target.
type Level string

const (
	LevelClient Level = "client"
	LevelSite   Level = "site"
	LevelJob    Level = "job"
)

// CascadeStep identifies one record in a cascade plan.
type CascadeStep struct {
	Level Level  `json:"level"`
	ID    string `json:"id"`
}

// CascadeResult reports how far a cascade got. FailedAt is nil on full
// success; on failure, Deleted holds the records that are already gone and
// everything after FailedAt was left intact for a later retry.
type CascadeResult struct {
	Deleted  []CascadeStep `json:"deleted"`
	FailedAt *CascadeStep  `json:"failed_at,omitempty"`
}

// CascadeError wraps a mid-cascade store failure together with the progress
// made before it.
type CascadeError struct {
	Result CascadeResult
	Err    error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete failed at %s %s after %d deletions: %v",
		e.Result.FailedAt.Level, e.Result.FailedAt.ID, len(e.Result.Deleted), e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// planCascade enumerates the records a delete must remove, deepest first:
// every descendant job, then descendant sites, then the target itself. The
// raw snapshots are the source of truth so that already-orphaned descendants
// are still swept.
func planCascade(level Level, id string, sites []domain.Site, jobs []domain.Job) []CascadeStep {
	var plan []CascadeStep
	jobsOf := func(siteID string) {
		for _, j := range jobs {
			if j.SiteID == siteID {
				plan = append(plan, CascadeStep{Level: LevelJob, ID: j.ID})
			}
		}
	}
	switch level {
	case LevelJob:
		plan = append(plan, CascadeStep{Level: LevelJob, ID: id})
	case LevelSite:
		jobsOf(id)
		plan = append(plan, CascadeStep{Level: LevelSite, ID: id})
	case LevelClient:
		for _, s := range sites {
			if s.ClientID != id {
				continue
			}
			jobsOf(s.ID)
			plan = append(plan, CascadeStep{Level: LevelSite, ID: s.ID})
		}
		plan = append(plan, CascadeStep{Level: LevelClient, ID: id})
	}
	return plan
}

// Delete removes an entity and all of its descendants, sequentially and
// without a transaction: deletions already executed stay executed, and on the
// first store failure the cascade stops. Survivors become orphans that the
// referential filter hides until a retry sweeps them.
func (e *Engine) Delete(ctx context.Context, level Level, id string) (CascadeResult, error) {
	if level != LevelClient && level != LevelSite && level != LevelJob {
		return CascadeResult{}, fmt.Errorf("invalid delete level %q", level)
	}
	ctx, err := e.session(ctx)
	if err != nil {
		return CascadeResult{}, err
	}

	e.mu.RLock()
	sites := e.sites
	jobs := e.jobs
	e.mu.RUnlock()

	plan := planCascade(level, id, sites, jobs)
	var result CascadeResult
	for _, step := range plan {
		var err error
		switch step.Level {
		case LevelJob:
			err = e.Store.DeleteJob(ctx, step.ID)
		case LevelSite:
			err = e.Store.DeleteSite(ctx, step.ID)
		case LevelClient:
			err = e.Store.DeleteClient(ctx, step.ID)
		}
		if err != nil {
			failed := step
			result.FailedAt = &failed
			return result, &CascadeError{Result: result, Err: err}
		}
		result.Deleted = append(result.Deleted, step)
	}
	return result, nil
}
