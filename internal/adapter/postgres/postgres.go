// Package postgres stores buildings and simulation records in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS buildings (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	building_type TEXT NOT NULL,
	artifact_name TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS simulations (
	id              TEXT PRIMARY KEY,
	building_id     TEXT NOT NULL REFERENCES buildings (id),
	simulation_type TEXT NOT NULL,
	status          TEXT NOT NULL,
	results_ref     TEXT,
	failure_reason  TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS simulations_latest_completed_idx
	ON simulations (building_id, completed_at DESC) WHERE status = 'completed';

CREATE INDEX IF NOT EXISTS simulations_running_idx
	ON simulations (created_at) WHERE status = 'running';
`

// Store implements domain.BuildingRepository and domain.SimulationRepository.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateBuilding(ctx context.Context, b domain.Building) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buildings (id, name, latitude, longitude, building_type, artifact_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Name, b.Latitude, b.Longitude, b.BuildingType, b.ArtifactName, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert building: %w", domain.ErrPersistence, err)
	}
	return nil
}

const buildingColumns = `id, name, latitude, longitude, building_type, artifact_name, created_at`

func (s *Store) GetBuilding(ctx context.Context, id string) (domain.Building, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildingColumns+` FROM buildings WHERE id = $1`, id)
	b, err := scanBuilding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Building{}, fmt.Errorf("%w: building %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Building{}, fmt.Errorf("%w: get building: %w", domain.ErrPersistence, err)
	}
	return b, nil
}

func (s *Store) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+buildingColumns+` FROM buildings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list buildings: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := []domain.Building{}
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan building: %w", domain.ErrPersistence, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list buildings: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

// StartSimulation inserts the pending row and promotes it to running in one
// transaction, so a failed promotion leaves no pending row behind.
func (s *Store) StartSimulation(ctx context.Context, sim domain.Simulation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin start simulation: %w", domain.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO simulations (id, building_id, simulation_type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sim.ID, sim.BuildingID, sim.Kind, string(sim.Status), sim.CreatedAt); err != nil {
		return fmt.Errorf("%w: insert simulation: %w", domain.ErrPersistence, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE simulations SET status = 'running' WHERE id = $1 AND status = 'pending'`, sim.ID)
	if err != nil {
		return fmt.Errorf("%w: mark running: %w", domain.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark running: %w", domain.ErrPersistence, err)
	}
	if n != 1 {
		err = fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, sim.Status, domain.StatusRunning)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit start simulation: %w", domain.ErrPersistence, err)
	}
	return nil
}

const simulationColumns = `id, building_id, simulation_type, status, results_ref, failure_reason, created_at, completed_at`

func (s *Store) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+simulationColumns+` FROM simulations WHERE id = $1`, id)
	sim, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Simulation{}, fmt.Errorf("%w: simulation %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Simulation{}, fmt.Errorf("%w: get simulation: %w", domain.ErrPersistence, err)
	}
	return sim, nil
}

func (s *Store) MarkCompleted(ctx context.Context, id, resultsRef string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE simulations SET status = 'completed', results_ref = $2, completed_at = $3
		 WHERE id = $1 AND status = 'running'`, id, resultsRef, at)
	return s.checkTransition(ctx, id, domain.StatusCompleted, res, err)
}

func (s *Store) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE simulations SET status = 'failed', failure_reason = $2, completed_at = $3
		 WHERE id = $1 AND status = 'running'`, id, reason, at)
	return s.checkTransition(ctx, id, domain.StatusFailed, res, err)
}

// checkTransition turns a conditional UPDATE that matched no rows into
// ErrNotFound or ErrInvalidTransition.
func (s *Store) checkTransition(ctx context.Context, id string, to domain.Status, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%w: mark %s: %w", domain.ErrPersistence, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark %s: %w", domain.ErrPersistence, to, err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM simulations WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: simulation %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("%w: mark %s: %w", domain.ErrPersistence, to, err)
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, to)
}

func (s *Store) LatestCompleted(ctx context.Context, buildingID string) (*domain.Simulation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+simulationColumns+` FROM simulations
		 WHERE building_id = $1 AND status = 'completed'
		 ORDER BY completed_at DESC LIMIT 1`, buildingID)
	sim, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest completed simulation: %w", domain.ErrPersistence, err)
	}
	return &sim, nil
}

func (s *Store) ListRunningBefore(ctx context.Context, cutoff time.Time) ([]domain.Simulation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+simulationColumns+` FROM simulations
		 WHERE status = 'running' AND created_at < $1
		 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: list running simulations: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Simulation
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan simulation: %w", domain.ErrPersistence, err)
		}
		out = append(out, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list running simulations: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuilding(row scanner) (domain.Building, error) {
	var b domain.Building
	if err := row.Scan(&b.ID, &b.Name, &b.Latitude, &b.Longitude, &b.BuildingType, &b.ArtifactName, &b.CreatedAt); err != nil {
		return domain.Building{}, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

func scanSimulation(row scanner) (domain.Simulation, error) {
	var (
		sim           domain.Simulation
		status        string
		resultsRef    sql.NullString
		failureReason sql.NullString
		completedAt   sql.NullTime
	)
	if err := row.Scan(&sim.ID, &sim.BuildingID, &sim.Kind, &status, &resultsRef, &failureReason, &sim.CreatedAt, &completedAt); err != nil {
		return domain.Simulation{}, err
	}
	sim.Status = domain.Status(status)
	sim.ResultsRef = resultsRef.String
	sim.FailureReason = failureReason.String
	sim.CreatedAt = sim.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		sim.CompletedAt = &t
	}
	return sim, nil
}
