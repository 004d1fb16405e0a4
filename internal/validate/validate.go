// Package validate performs the client-side argument checks the backing
// store would otherwise reject later and more expensively: non-empty,
// colon-free collection/list names, a positive data time, and a
// data-size ceiling.
package validate

import (
	"math"

	"github.com/trackingsoft/go-cappedcollection/internal/errs"
	"github.com/trackingsoft/go-cappedcollection/internal/keyspace"
)

// Name validates a collection or list name (non-empty, colon-free).
func Name(op, field, s string) error {
	if err := keyspace.ValidateName(field, s); err != nil {
		return errs.New(op, errs.KindArgument, err.Error(), nil)
	}
	return nil
}

// DataTime validates that t is a positive, finite ordering key.
func DataTime(op string, t float64) error {
	if t <= 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return errs.New(op, errs.KindArgument, "data_time must be positive and finite", nil)
	}
	return nil
}

// DataSize validates data against maxDatasize (0 means "no limit
// configured", which should not happen once a collection is open but is
// tolerated defensively).
func DataSize(op string, data []byte, maxDatasize int64) error {
	if maxDatasize > 0 && int64(len(data)) > maxDatasize {
		return errs.New(op, errs.KindDataTooLarge, "data exceeds max_datasize", nil)
	}
	return nil
}
