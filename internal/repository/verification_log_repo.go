package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VerificationLogRepo is the append-only audit trail of certificate
// verification attempts. Written for later security review, never read
// on the request path.
type VerificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewVerificationLogRepo(pool *pgxpool.Pool) *VerificationLogRepo {
	return &VerificationLogRepo{pool: pool}
}

func (r *VerificationLogRepo) Record(ctx context.Context, certificateID string, valid bool, reason, clientIP string) error {
	outcome := "failure"
	if valid {
		outcome = "success"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_logs (certificate_id, outcome, reason, client_ip)
		VALUES ($1, $2, $3, $4)`,
		certificateID, outcome, reason, clientIP,
	)
	return err
}
