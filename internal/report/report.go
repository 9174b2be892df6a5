// Package report builds the printable job lists: material orders, pending
// quotes, and all active work. Rendering stays with the presentation layer;
// this only selects and orders the data.
package report

import (
	"fmt"

	"ritech/internal/domain"
	"ritech/internal/engine"
)

type Kind string

const (
	Materials Kind = "materials"
	Quotes    Kind = "quotes"
	Active    Kind = "active"
)

var Kinds = []Kind{Materials, Quotes, Active}

// Build selects the report rows from the valid-job projection. Rows keep the
// projection's urgency order.
func Build(kind Kind, jobs []engine.JobView) ([]engine.JobView, error) {
	var match func(domain.Job) bool
	switch kind {
	case Materials:
		match = func(j domain.Job) bool { return j.Status == domain.StatusOrderMaterial }
	case Quotes:
		match = func(j domain.Job) bool { return j.Status == domain.StatusQuoteNeeded }
	case Active:
		match = func(j domain.Job) bool { return j.IsOpen() }
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
	var rows []engine.JobView
	for _, j := range jobs {
		if match(j.Job) {
			rows = append(rows, j)
		}
	}
	return rows, nil
}
