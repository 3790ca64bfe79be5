package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore reads and writes the administrators and investors tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func tableFor(role models.Role) (string, error) {
	switch role {
	case models.RoleAdministrator:
		return "administrators", nil
	case models.RoleInvestor:
		return "investors", nil
	default:
		return "", fmt.Errorf("no table for role %q: %w", role, ErrNotFound)
	}
}

const identityColumns = `id, first_name, second_name, email_address, password_hash, policies, active, created_at, updated_at`

// FindMatches queries both classes concurrently. It always reads through the
// pool, never a caller transaction, so the two queries can overlap.
func (s *PostgresStore) FindMatches(ctx context.Context, email, passwordHash string) ([]models.Match, error) {
	roles := models.Roles()
	results := make([][]models.Match, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		g.Go(func() error {
			matches, err := s.findMatchesIn(gctx, role, email, passwordHash)
			if err != nil {
				return err
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.Match
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (s *PostgresStore) findMatchesIn(ctx context.Context, role models.Role, email, passwordHash string) ([]models.Match, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email_address = $1 AND password_hash = $2`, identityColumns, table)
	rows, err := s.db.QueryContext(ctx, query, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("find %s matches: %w", role, err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		ident, err := scanIdentity(rows, role)
		if err != nil {
			return nil, err
		}
		matches = append(matches, models.MatchFromIdentity(ident))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s matches: %w", role, err)
	}
	return matches, nil
}

func (s *PostgresStore) EmailRegistered(ctx context.Context, role models.Role, email string) (bool, error) {
	table, err := tableFor(role)
	if err != nil {
		return false, err
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE email_address = $1)`, table)
	if err := executor(ctx, s.db).QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s email: %w", role, err)
	}
	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, ident *models.Identity) error {
	table, err := tableFor(ident.Role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table, identityColumns)
	_, err = executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(ident.ID),
		ident.FirstName,
		ident.SecondName,
		ident.EmailAddress,
		ident.PasswordHash,
		pq.Array(ident.Policies.Sorted()),
		ident.Active,
		ident.CreatedAt,
		ident.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert %s: %w", ident.Role, err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error) {
	return s.findByID(ctx, role, identityID, "")
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, role models.Role, identityID id.IdentityID) (*models.Identity, error) {
	return s.findByID(ctx, role, identityID, " FOR UPDATE")
}

func (s *PostgresStore) findByID(ctx context.Context, role models.Role, identityID id.IdentityID, suffix string) (*models.Identity, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1%s`, identityColumns, table, suffix)
	ident, err := scanIdentity(executor(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(identityID)), role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ident, nil
}

func (s *PostgresStore) UpdatePolicySet(ctx context.Context, role models.Role, identityID id.IdentityID, set models.PolicySet, now time.Time) error {
	table, err := tableFor(role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET policies = $2, updated_at = $3 WHERE id = $1`, table)
	res, err := executor(ctx, s.db).ExecContext(ctx, query, uuid.UUID(identityID), pq.Array(set.Sorted()), now)
	if err != nil {
		return fmt.Errorf("update %s policies: %w", role, err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) SetActive(ctx context.Context, role models.Role, identityID id.IdentityID, active bool, now time.Time) error {
	table, err := tableFor(role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET active = $2, updated_at = $3 WHERE id = $1`, table)
	res, err := executor(ctx, s.db).ExecContext(ctx, query, uuid.UUID(identityID), active, now)
	if err != nil {
		return fmt.Errorf("update %s active: %w", role, err)
	}
	return expectOneRow(res)
}

func (s *PostgresStore) ListByPolicy(ctx context.Context, role models.Role, policy string, activeOnly bool) ([]*models.Identity, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE $1 = ANY(policies) AND (active OR NOT $2) ORDER BY email_address`, identityColumns, table)
	rows, err := executor(ctx, s.db).QueryContext(ctx, query, policy, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list %s by policy: %w", role, err)
	}
	defer rows.Close()

	var out []*models.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows, role)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s by policy: %w", role, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner, role models.Role) (*models.Identity, error) {
	var (
		ident      models.Identity
		identityID uuid.UUID
		policies   pq.StringArray
	)
	err := row.Scan(
		&identityID,
		&ident.FirstName,
		&ident.SecondName,
		&ident.EmailAddress,
		&ident.PasswordHash,
		&policies,
		&ident.Active,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan %s: %w", role, err)
	}
	ident.ID = id.IdentityID(identityID)
	ident.Role = role
	ident.Policies = models.NewPolicySet(policies...)
	return &ident, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
