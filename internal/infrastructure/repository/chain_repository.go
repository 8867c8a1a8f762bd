package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/identity"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/vessel"
	"github.com/blueharbor/maritime-risk-engine/internal/service/identitygraph"
)

// ChainRepository implements the identitygraph.Repository interface over
// PostgreSQL. Chain rows are append-only: recomputes insert new versions and
// flip the superseded rows' current flag inside one transaction.
type ChainRepository struct {
	db *pgxpool.Pool
}

// NewChainRepository creates a new PostgreSQL chain repository
func NewChainRepository(db *pgxpool.Pool) *ChainRepository {
	return &ChainRepository{db: db}
}

const chainSelect = `
	SELECT c.id, c.confidence, c.evidence, c.version, c.current,
	       c.superseded_by, c.computed_at, c.links,
	       array_agg(cv.vessel_id ORDER BY cv.position) AS vessels
	FROM merge_chains c
	JOIN chain_vessels cv ON cv.chain_id = c.id
`

// ListCandidates returns every stored merge candidate, oldest first.
func (r *ChainRepository) ListCandidates(ctx context.Context) ([]*identity.MergeCandidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, vessel_a, vessel_b, score, evidence, created_at
		FROM merge_candidates
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list merge candidates").WithCause(err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListCandidatesForVessels returns candidates touching any of the given
// vessels, oldest first.
func (r *ChainRepository) ListCandidatesForVessels(ctx context.Context, vessels []vessel.VesselID) ([]*identity.MergeCandidate, error) {
	if len(vessels) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(vessels))
	for i, v := range vessels {
		ids[i] = int64(v)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, vessel_a, vessel_b, score, evidence, created_at
		FROM merge_candidates
		WHERE vessel_a = ANY($1) OR vessel_b = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return nil, errors.NewInternalError("failed to list candidates for vessels").WithCause(err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListCurrentChains returns every chain not yet superseded.
func (r *ChainRepository) ListCurrentChains(ctx context.Context) ([]*identity.MergeChain, error) {
	rows, err := r.db.Query(ctx, chainSelect+`
		WHERE c.current
		GROUP BY c.id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, errors.NewInternalError("failed to list current chains").WithCause(err)
	}
	defer rows.Close()

	var chains []*identity.MergeChain
	for rows.Next() {
		chain, err := scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, chain)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read chain rows").WithCause(err)
	}

	return chains, nil
}

// CurrentChainForVessel returns the current chain covering one vessel.
func (r *ChainRepository) CurrentChainForVessel(ctx context.Context, vesselID vessel.VesselID) (*identity.MergeChain, error) {
	rows, err := r.db.Query(ctx, chainSelect+`
		WHERE c.current
		  AND c.id IN (SELECT chain_id FROM chain_vessels WHERE vessel_id = $1)
		GROUP BY c.id
		LIMIT 1
	`, int64(vesselID))
	if err != nil {
		return nil, errors.NewInternalError("failed to query chain for vessel").WithCause(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.NewInternalError("failed to read chain row").WithCause(err)
		}
		return nil, errors.NewNotFoundError("merge chain")
	}

	return scanChain(rows)
}

// ApplyChainMutation persists the candidate, the replacement chains and the
// superseded flags in one transaction. New chains land before the superseded
// rows are updated so the successor reference always resolves.
func (r *ChainRepository) ApplyChainMutation(ctx context.Context, mutation identitygraph.ChainMutation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.NewInternalError("failed to begin chain transaction").WithCause(err)
	}
	defer tx.Rollback(ctx)

	if mutation.Candidate != nil {
		if err := insertCandidate(ctx, tx, mutation.Candidate); err != nil {
			return err
		}
	}

	for _, chain := range mutation.NewChains {
		if err := insertChain(ctx, tx, chain); err != nil {
			return err
		}
	}

	for _, old := range mutation.Superseded {
		_, err := tx.Exec(ctx, `
			UPDATE merge_chains
			SET current = FALSE, superseded_by = $2
			WHERE id = $1
		`, old.ID, old.SupersededBy)
		if err != nil {
			return errors.NewInternalError("failed to supersede chain").WithCause(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewInternalError("failed to commit chain mutation").WithCause(err)
	}

	return nil
}

func insertCandidate(ctx context.Context, tx pgx.Tx, c *identity.MergeCandidate) error {
	evidence, err := json.Marshal(c.Evidence)
	if err != nil {
		return errors.NewInternalError("failed to marshal candidate evidence").WithCause(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO merge_candidates (id, vessel_a, vessel_b, score, evidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, int64(c.VesselA), int64(c.VesselB), c.Score, evidence, c.CreatedAt)
	if err != nil {
		return errors.NewInternalError("failed to insert merge candidate").WithCause(err)
	}

	return nil
}

func insertChain(ctx context.Context, tx pgx.Tx, chain *identity.MergeChain) error {
	evidence, err := json.Marshal(chain.Evidence)
	if err != nil {
		return errors.NewInternalError("failed to marshal chain evidence").WithCause(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO merge_chains (id, confidence, band, evidence, version, current,
		                          superseded_by, computed_at, links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, chain.ID, chain.Confidence, chain.Band.String(), evidence, chain.Version,
		chain.Current, chain.SupersededBy, chain.ComputedAt, chain.Links)
	if err != nil {
		return errors.NewInternalError("failed to insert merge chain").WithCause(err)
	}

	for i, v := range chain.Vessels {
		_, err := tx.Exec(ctx, `
			INSERT INTO chain_vessels (chain_id, position, vessel_id)
			VALUES ($1, $2, $3)
		`, chain.ID, i, int64(v))
		if err != nil {
			return errors.NewInternalError("failed to insert chain vessel").WithCause(err)
		}
	}

	return nil
}

func scanCandidates(rows pgx.Rows) ([]*identity.MergeCandidate, error) {
	var candidates []*identity.MergeCandidate
	for rows.Next() {
		var (
			c        identity.MergeCandidate
			a, b     int64
			evidence []byte
		)
		if err := rows.Scan(&c.ID, &a, &b, &c.Score, &evidence, &c.CreatedAt); err != nil {
			return nil, errors.NewInternalError("failed to scan merge candidate").WithCause(err)
		}
		c.VesselA = vessel.VesselID(a)
		c.VesselB = vessel.VesselID(b)
		if err := unmarshalEvidence(evidence, &c.Evidence); err != nil {
			return nil, err
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to read candidate rows").WithCause(err)
	}

	return candidates, nil
}

func scanChain(rows pgx.Rows) (*identity.MergeChain, error) {
	var (
		chain    identity.MergeChain
		evidence []byte
		links    []uuid.UUID
		vessels  []int64
	)
	err := rows.Scan(&chain.ID, &chain.Confidence, &evidence, &chain.Version,
		&chain.Current, &chain.SupersededBy, &chain.ComputedAt, &links, &vessels)
	if err != nil {
		return nil, errors.NewInternalError("failed to scan merge chain").WithCause(err)
	}

	// band is stored for SQL-side consumers but derived on load, keeping the
	// ladder in one place.
	chain.Band = identity.BandForConfidence(chain.Confidence)
	chain.Links = links
	chain.Vessels = make([]vessel.VesselID, len(vessels))
	for i, v := range vessels {
		chain.Vessels[i] = vessel.VesselID(v)
	}
	if err := unmarshalEvidence(evidence, &chain.Evidence); err != nil {
		return nil, err
	}

	return &chain, nil
}

func unmarshalEvidence(raw []byte, dst *map[string]interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewInternalError("failed to unmarshal evidence").WithCause(err)
	}
	return nil
}
