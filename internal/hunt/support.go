package hunt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the authoritative time for gating decisions. Injected so
// tests can pin the campaign calendar.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// IDGenerator produces document IDs for award log entries.
type IDGenerator interface {
	NewLogID(at time.Time) string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns an IDGenerator producing timestamp-prefixed IDs.
// The millisecond prefix preserves the original timestamp-keyed ordering; the
// uuid suffix guards against same-millisecond collisions.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewLogID(at time.Time) string {
	suffix := uuid.NewString()
	if id, err := uuid.NewV7(); err == nil {
		suffix = id.String()
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), suffix[:8])
}
