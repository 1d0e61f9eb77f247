package ports

import (
	"context"
	"time"

	"github.com/johnqh/heavymath/internal/domain"
)

// Storage persiste snapshots del estado de pools y stakes. El engine lo
// usa best-effort: un fallo de persistencia se loguea pero no revierte la
// operación de negocio (la fuente de verdad es el estado en memoria).
type Storage interface {
	// SavePool hace upsert del snapshot del pool.
	SavePool(ctx context.Context, p domain.Pool) error

	// SaveStake hace upsert del stake de un participante en un pool.
	SaveStake(ctx context.Context, poolID string, s domain.Stake) error

	// DeleteStake elimina el registro de un stake retirado.
	DeleteStake(ctx context.Context, poolID, owner string) error

	// SaveReport archiva el resumen de settlement de un pool terminal.
	SaveReport(ctx context.Context, r domain.SettlementReport) error

	// ListPools devuelve los pools creados en el rango de tiempo dado.
	ListPools(ctx context.Context, from, to time.Time) ([]domain.Pool, error)

	// Close cierra la conexión limpiamente.
	Close() error
}
