package storage

// sqlite.go: snapshots del estado del engine para auditoría y el CLI.
//
// Estrategia:
//   - `pools`: UNA fila por pool (UPSERT en cada mutación). Los buckets no
//     se duplican aquí: se derivan de `stakes`.
//   - `stakes`: una fila por stake vivo; se borra al retirar.
//   - `settlements`: una fila por pool terminal con el desglose de
//     comisiones, el histórico que de verdad interesa consultar.
//   - Las cantidades van como TEXT (sdkmath.Int.String()): SQLite no tiene
//     enteros de precisión arbitraria.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	_ "modernc.org/sqlite"

	"github.com/johnqh/heavymath/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
    id                   TEXT PRIMARY KEY,
    creator              TEXT     NOT NULL,
    credential_id        TEXT     NOT NULL,
    category             TEXT     NOT NULL,
    sub_category         TEXT     NOT NULL,
    description          TEXT,
    created_at           DATETIME NOT NULL,
    deadline             DATETIME NOT NULL,
    fee_bps              INTEGER  NOT NULL,
    status               TEXT     NOT NULL,
    oracle_ref           TEXT,
    resolution           INTEGER  NOT NULL DEFAULT -1,
    equilibrium          INTEGER  NOT NULL DEFAULT -1,
    total                TEXT     NOT NULL DEFAULT '0',
    dealer_fee           TEXT     NOT NULL DEFAULT '0',
    system_fee           TEXT     NOT NULL DEFAULT '0',
    dealer_fee_withdrawn INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS stakes (
    pool_id    TEXT     NOT NULL,
    owner      TEXT     NOT NULL,
    amount     TEXT     NOT NULL,
    percentage INTEGER  NOT NULL,
    placed_at  DATETIME NOT NULL,
    claimed    INTEGER  NOT NULL DEFAULT 0,
    PRIMARY KEY (pool_id, owner)
);

CREATE TABLE IF NOT EXISTS settlements (
    pool_id       TEXT PRIMARY KEY,
    category      TEXT     NOT NULL,
    sub_category  TEXT     NOT NULL,
    status        TEXT     NOT NULL,
    settled_at    DATETIME NOT NULL,
    equilibrium   INTEGER  NOT NULL,
    resolution    INTEGER  NOT NULL,
    total         TEXT     NOT NULL,
    participants  INTEGER  NOT NULL,
    winners       INTEGER  NOT NULL,
    distributable TEXT     NOT NULL,
    dealer_fee    TEXT     NOT NULL,
    system_fee    TEXT     NOT NULL,
    winner_pool   TEXT     NOT NULL,
    dust          TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pools_status   ON pools(status);
CREATE INDEX IF NOT EXISTS idx_pools_created  ON pools(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_stakes_pool    ON stakes(pool_id);
CREATE INDEX IF NOT EXISTS idx_settled_at     ON settlements(settled_at DESC);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SavePool hace upsert del snapshot del pool.
func (s *SQLiteStorage) SavePool(ctx context.Context, p domain.Pool) error {
	withdrawn := 0
	if p.DealerFeeWithdrawn {
		withdrawn = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pools
			(id, creator, credential_id, category, sub_category, description,
			 created_at, deadline, fee_bps, status, oracle_ref,
			 resolution, equilibrium, total, dealer_fee, system_fee, dealer_fee_withdrawn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fee_bps              = excluded.fee_bps,
			status               = excluded.status,
			resolution           = excluded.resolution,
			equilibrium          = excluded.equilibrium,
			total                = excluded.total,
			dealer_fee           = excluded.dealer_fee,
			system_fee           = excluded.system_fee,
			dealer_fee_withdrawn = excluded.dealer_fee_withdrawn
	`,
		p.ID, p.Creator, p.CredentialID, p.Category, p.SubCategory, p.Description,
		p.CreatedAt.UTC(), p.Deadline.UTC(), p.FeeBps, string(p.Status), p.OracleRef,
		p.Resolution, p.Equilibrium, p.Total.String(),
		p.DealerFee.String(), p.SystemFee.String(), withdrawn,
	)
	if err != nil {
		return fmt.Errorf("storage.SavePool: %s: %w", p.ID, err)
	}
	return nil
}

// SaveStake hace upsert del stake de un participante.
func (s *SQLiteStorage) SaveStake(ctx context.Context, poolID string, st domain.Stake) error {
	claimed := 0
	if st.Claimed {
		claimed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stakes (pool_id, owner, amount, percentage, placed_at, claimed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(pool_id, owner) DO UPDATE SET
			amount     = excluded.amount,
			percentage = excluded.percentage,
			claimed    = excluded.claimed
	`, poolID, st.Owner, st.Amount.String(), st.Percentage, st.PlacedAt.UTC(), claimed)
	if err != nil {
		return fmt.Errorf("storage.SaveStake: %s/%s: %w", poolID, st.Owner, err)
	}
	return nil
}

// DeleteStake elimina el registro de un stake retirado.
func (s *SQLiteStorage) DeleteStake(ctx context.Context, poolID, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stakes WHERE pool_id = ? AND owner = ?`, poolID, owner)
	if err != nil {
		return fmt.Errorf("storage.DeleteStake: %s/%s: %w", poolID, owner, err)
	}
	return nil
}

// SaveReport archiva el resumen de settlement de un pool terminal.
func (s *SQLiteStorage) SaveReport(ctx context.Context, r domain.SettlementReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements
			(pool_id, category, sub_category, status, settled_at,
			 equilibrium, resolution, total, participants, winners,
			 distributable, dealer_fee, system_fee, winner_pool, dust)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pool_id) DO UPDATE SET
			status        = excluded.status,
			settled_at    = excluded.settled_at,
			equilibrium   = excluded.equilibrium,
			resolution    = excluded.resolution,
			total         = excluded.total,
			participants  = excluded.participants,
			winners       = excluded.winners,
			distributable = excluded.distributable,
			dealer_fee    = excluded.dealer_fee,
			system_fee    = excluded.system_fee,
			winner_pool   = excluded.winner_pool,
			dust          = excluded.dust
	`,
		r.PoolID, r.Category, r.SubCategory, string(r.Status), r.SettledAt.UTC(),
		r.Equilibrium, r.Resolution, r.Total.String(), r.Participants, r.Winners,
		r.Distributable.String(), r.DealerFee.String(), r.SystemFee.String(),
		r.WinnerPool.String(), r.Dust.String(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveReport: %s: %w", r.PoolID, err)
	}
	return nil
}

// ListPools devuelve los pools creados en el rango dado, más recientes
// primero. Los buckets no se materializan: se derivan de los stakes.
func (s *SQLiteStorage) ListPools(ctx context.Context, from, to time.Time) ([]domain.Pool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creator, credential_id, category, sub_category, description,
		       created_at, deadline, fee_bps, status, oracle_ref,
		       resolution, equilibrium, total, dealer_fee, system_fee, dealer_fee_withdrawn
		FROM pools
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.ListPools: query: %w", err)
	}
	defer rows.Close()

	var pools []domain.Pool
	for rows.Next() {
		var (
			p                           domain.Pool
			createdAt, deadline         time.Time
			status                      string
			total, dealerFee, systemFee string
			withdrawn                   int
		)
		if err := rows.Scan(
			&p.ID, &p.Creator, &p.CredentialID, &p.Category, &p.SubCategory, &p.Description,
			&createdAt, &deadline, &p.FeeBps, &status, &p.OracleRef,
			&p.Resolution, &p.Equilibrium, &total, &dealerFee, &systemFee, &withdrawn,
		); err != nil {
			return nil, fmt.Errorf("storage.ListPools: scan row: %w", err)
		}

		p.CreatedAt = createdAt
		p.Deadline = deadline
		p.Status = domain.PoolStatus(status)
		p.Total = parseAmount(total)
		p.DealerFee = parseAmount(dealerFee)
		p.SystemFee = parseAmount(systemFee)
		p.DealerFeeWithdrawn = withdrawn == 1
		p.Buckets = domain.NewBuckets()
		pools = append(pools, p)
	}

	return pools, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// parseAmount lee una cantidad serializada; un valor corrupto vuelve como
// cero en vez de romper el listado.
func parseAmount(text string) sdkmath.Int {
	amount, ok := sdkmath.NewIntFromString(text)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amount
}
