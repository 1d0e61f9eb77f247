package ports

import (
	"context"
	"time"
)

// OracleData is a single externally-supplied outcome datum.
type OracleData struct {
	Percentage int       // 0-100
	Timestamp  time.Time // when the datum was produced
	Valid      bool      // false if the feed considers it stale/unusable
}

// Oracle supplies external percentage outcomes for oracle-resolved pools.
type Oracle interface {
	// GetData returns the current datum for the given feed reference.
	GetData(ctx context.Context, ref string) (OracleData, error)

	// MarkConsumed tells the feed its datum settled a pool. Called once,
	// after a successful resolution.
	MarkConsumed(ctx context.Context, ref string) error
}
