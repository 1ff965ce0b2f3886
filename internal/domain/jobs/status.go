package jobs

import (
	"fmt"

	"github.com/Spok95/pressops/internal/domain/errs"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
)

var order = map[Status]int{
	StatusNotStarted: 0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusDelivered:  3,
}

func (s Status) Valid() bool {
	_, ok := order[s]
	return ok
}

// CanTransition allows forward moves only. Skipping a step is fine,
// going back or staying put is not.
func CanTransition(from, to Status) error {
	if !to.Valid() {
		return errs.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	if !from.Valid() {
		return fmt.Errorf("job has unknown status %q", from)
	}
	if order[to] <= order[from] {
		return errs.Invalid("status", fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}
