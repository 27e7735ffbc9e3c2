// Package storage holds the pgx-backed persistence for the identity
// registry and trust graph services, implementing both pkg/trust.Store
// and the registry's identity lookup contract.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sage-x-project/fides/internal/ferrors"
	"github.com/sage-x-project/fides/pkg/identity"
	"github.com/sage-x-project/fides/pkg/trust"
)

const (
	defaultPoolMax      = 10
	defaultIdleTimeout  = 20 * time.Second
	defaultConnTimeout  = 10 * time.Second
	pgUniqueViolation   = "23505"
)

// Postgres is the pgxpool-backed implementation of pkg/trust.Store plus
// the registry's identity persistence.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool against databaseURL and verifies
// reachability with a connect-timeout-bounded ping. poolMax<=0 uses the
// spec default of 10.
func Open(ctx context.Context, databaseURL string, poolMax int) (*Postgres, error) {
	if poolMax <= 0 {
		poolMax = defaultPoolMax
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, ferrors.TrustError("parse database url", err)
	}
	cfg.MaxConns = int32(poolMax)
	cfg.MaxConnIdleTime = defaultIdleTimeout

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, ferrors.TrustError("create connection pool", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, ferrors.TrustError("ping database", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// RunMigrations applies the given schema SQL. Callers typically pass the
// contents of internal/storage/schema.sql, read from disk; it is idempotent
// (every statement is IF NOT EXISTS).
func (p *Postgres) RunMigrations(ctx context.Context, schemaSQL string) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return ferrors.TrustError("apply schema migration", err)
	}
	return nil
}

// Ping checks database reachability, used by the /health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// --- pkg/trust.Store ---

var _ trust.Store = (*Postgres)(nil)

func (p *Postgres) UpsertEdge(ctx context.Context, edge *trust.Edge) error {
	const sql = `
		INSERT INTO trust_edges (id, source, target, trust_level, attestation, signature, created_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source, target) DO UPDATE SET
			trust_level = EXCLUDED.trust_level,
			attestation = EXCLUDED.attestation,
			signature = EXCLUDED.signature,
			expires_at = EXCLUDED.expires_at,
			revoked_at = NULL
		RETURNING id, created_at`

	row := p.pool.QueryRow(ctx, sql,
		edge.ID, edge.Source, edge.Target, edge.TrustLevel, edge.Attestation, edge.Signature,
		edge.CreatedAt, edge.ExpiresAt, edge.RevokedAt,
	)
	if err := row.Scan(&edge.ID, &edge.CreatedAt); err != nil {
		return ferrors.TrustError("upsert trust edge", err)
	}
	return nil
}

func (p *Postgres) GetEdge(ctx context.Context, source, target string) (*trust.Edge, error) {
	const sql = `
		SELECT id, source, target, trust_level, attestation, signature, created_at, expires_at, revoked_at
		FROM trust_edges WHERE source = $1 AND target = $2`

	e := &trust.Edge{}
	err := p.pool.QueryRow(ctx, sql, source, target).Scan(
		&e.ID, &e.Source, &e.Target, &e.TrustLevel, &e.Attestation, &e.Signature,
		&e.CreatedAt, &e.ExpiresAt, &e.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ferrors.TrustError("edge not found", nil)
	}
	if err != nil {
		return nil, ferrors.TrustError("get trust edge", err)
	}
	return e, nil
}

func (p *Postgres) ListEdges(ctx context.Context) ([]*trust.Edge, error) {
	const sql = `
		SELECT id, source, target, trust_level, attestation, signature, created_at, expires_at, revoked_at
		FROM trust_edges ORDER BY created_at ASC`

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, ferrors.TrustError("list trust edges", err)
	}
	defer rows.Close()

	edges := []*trust.Edge{}
	for rows.Next() {
		e := &trust.Edge{}
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.TrustLevel, &e.Attestation, &e.Signature,
			&e.CreatedAt, &e.ExpiresAt, &e.RevokedAt); err != nil {
			return nil, ferrors.TrustError("scan trust edge", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.TrustError("iterate trust edges", err)
	}
	return edges, nil
}

func (p *Postgres) RevokeEdge(ctx context.Context, source, target string, now time.Time) error {
	const sql = `UPDATE trust_edges SET revoked_at = $3 WHERE source = $1 AND target = $2`
	tag, err := p.pool.Exec(ctx, sql, source, target, now)
	if err != nil {
		return ferrors.TrustError("revoke trust edge", err)
	}
	if tag.RowsAffected() == 0 {
		return ferrors.TrustError("edge not found", nil)
	}
	return nil
}

func (p *Postgres) GetIdentity(ctx context.Context, did string) (*identity.Record, error) {
	const sql = `
		SELECT did, public_key, metadata, domain, first_seen, last_seen
		FROM identities WHERE did = $1`

	rec := &identity.Record{}
	var metadata map[string]any
	err := p.pool.QueryRow(ctx, sql, did).Scan(
		&rec.DID, &rec.PublicKey, &metadata, &rec.Domain, &rec.FirstSeen, &rec.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ferrors.TrustError("identity not found", nil)
	}
	if err != nil {
		return nil, ferrors.TrustError("get identity", err)
	}
	rec.Metadata = metadata
	return rec, nil
}

func (p *Postgres) UpsertIdentity(ctx context.Context, rec *identity.Record) error {
	const sql = `
		INSERT INTO identities (did, public_key, metadata, domain, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (did) DO UPDATE SET last_seen = EXCLUDED.last_seen`

	_, err := p.pool.Exec(ctx, sql, rec.DID, rec.PublicKey, rec.Metadata, rec.Domain, rec.FirstSeen, rec.LastSeen)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ferrors.TrustError(fmt.Sprintf("identity %q already registered under a different key", rec.DID), err)
		}
		return ferrors.TrustError("upsert identity", err)
	}
	return nil
}

func (p *Postgres) ListIdentitiesByDomain(ctx context.Context, domain string) ([]*identity.Record, error) {
	const sql = `
		SELECT did, public_key, metadata, domain, first_seen, last_seen
		FROM identities WHERE domain = $1 ORDER BY first_seen ASC`

	rows, err := p.pool.Query(ctx, sql, domain)
	if err != nil {
		return nil, ferrors.TrustError("list identities by domain", err)
	}
	defer rows.Close()

	records := []*identity.Record{}
	for rows.Next() {
		rec := &identity.Record{}
		var metadata map[string]any
		if err := rows.Scan(&rec.DID, &rec.PublicKey, &metadata, &rec.Domain, &rec.FirstSeen, &rec.LastSeen); err != nil {
			return nil, ferrors.TrustError("scan identity", err)
		}
		rec.Metadata = metadata
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.TrustError("iterate identities", err)
	}
	return records, nil
}

func (p *Postgres) GetScore(ctx context.Context, did string) (*trust.ReputationScore, error) {
	const sql = `
		SELECT did, score, direct_trusters, transitive_trusters, last_computed
		FROM reputation_scores WHERE did = $1`

	s := &trust.ReputationScore{}
	err := p.pool.QueryRow(ctx, sql, did).Scan(&s.DID, &s.Score, &s.DirectTrusters, &s.TransitiveTrusters, &s.LastComputed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.TrustError("get reputation score", err)
	}
	return s, nil
}

func (p *Postgres) PutScore(ctx context.Context, score *trust.ReputationScore) error {
	const sql = `
		INSERT INTO reputation_scores (did, score, direct_trusters, transitive_trusters, last_computed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (did) DO UPDATE SET
			score = EXCLUDED.score,
			direct_trusters = EXCLUDED.direct_trusters,
			transitive_trusters = EXCLUDED.transitive_trusters,
			last_computed = EXCLUDED.last_computed`

	_, err := p.pool.Exec(ctx, sql, score.DID, score.Score, score.DirectTrusters, score.TransitiveTrusters, score.LastComputed)
	if err != nil {
		return ferrors.TrustError("put reputation score", err)
	}
	return nil
}

func (p *Postgres) InvalidateScore(ctx context.Context, did string) error {
	const sql = `UPDATE reputation_scores SET last_computed = to_timestamp(0) WHERE did = $1`
	_, err := p.pool.Exec(ctx, sql, did)
	if err != nil {
		return ferrors.TrustError("invalidate reputation score", err)
	}
	return nil
}
