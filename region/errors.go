package region

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID = errors.New("region: duplicate id")
	ErrNotFound    = errors.New("region: not found")
	ErrEmptyID     = errors.New("region: empty id")
)

// GeometryError reports a degenerate region. Such regions are dropped and
// never reach the applier.
type GeometryError struct {
	RegionID string
	Page     int
	Reason   string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("region %s on page %d: %s", e.RegionID, e.Page, e.Reason)
}
