package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
)

const uniqueViolation = "23505"

const fundColumns = `id, fund_name, investment_firm, administrators, investors, capital_distribution,
	commission_type, commission_value, capital_target, phase, created_at, updated_at`

// PostgresStore reads and writes the funds table. Capital distribution is
// stored as JSONB keyed by investor id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, fund *models.Fund) error {
	distribution, err := json.Marshal(fund.CapitalDistribution)
	if err != nil {
		return fmt.Errorf("encode capital distribution: %w", err)
	}
	query := `INSERT INTO funds (` + fundColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = executor(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(fund.ID),
		fund.FundName,
		fund.InvestmentFirm,
		pq.Array(idStrings(fund.Administrators)),
		pq.Array(idStrings(fund.Investors)),
		distribution,
		string(fund.Commission.Type),
		fund.Commission.Value,
		nullFloat(fund.CapitalTarget),
		string(fund.Phase),
		fund.CreatedAt,
		fund.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("insert fund: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, fundID id.FundID) (*models.Fund, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(fundID))
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, fundID id.FundID) (*models.Fund, error) {
	return s.findOne(ctx, `WHERE id = $1 FOR UPDATE`, uuid.UUID(fundID))
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Fund, error) {
	return s.findOne(ctx, `WHERE fund_name = $1`, strings.TrimSpace(name))
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds ` + where
	fund, err := scanFund(executor(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fund, nil
}

// Update writes every mutable column. Callers hold the row lock from
// FindByIDForUpdate.
func (s *PostgresStore) Update(ctx context.Context, fund *models.Fund) error {
	distribution, err := json.Marshal(fund.CapitalDistribution)
	if err != nil {
		return fmt.Errorf("encode capital distribution: %w", err)
	}
	res, err := executor(ctx, s.db).ExecContext(ctx, `
		UPDATE funds SET
			administrators = $2,
			investors = $3,
			capital_distribution = $4,
			commission_type = $5,
			commission_value = $6,
			capital_target = $7,
			phase = $8,
			updated_at = $9
		WHERE id = $1`,
		uuid.UUID(fund.ID),
		pq.Array(idStrings(fund.Administrators)),
		pq.Array(idStrings(fund.Investors)),
		distribution,
		string(fund.Commission.Type),
		fund.Commission.Value,
		nullFloat(fund.CapitalTarget),
		string(fund.Phase),
		fund.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fund: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, phase *models.Phase) ([]*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE ($1 = '' OR phase = $1) ORDER BY created_at, fund_name`
	var filter string
	if phase != nil {
		filter = string(*phase)
	}
	rows, err := executor(ctx, s.db).QueryContext(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	out := []*models.Fund{}
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funds: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFund(row rowScanner) (*models.Fund, error) {
	var (
		fund           models.Fund
		fundID         uuid.UUID
		administrators pq.StringArray
		investors      pq.StringArray
		distribution   []byte
		commissionType string
		capitalTarget  sql.NullFloat64
		phase          string
	)
	err := row.Scan(
		&fundID,
		&fund.FundName,
		&fund.InvestmentFirm,
		&administrators,
		&investors,
		&distribution,
		&commissionType,
		&fund.Commission.Value,
		&capitalTarget,
		&phase,
		&fund.CreatedAt,
		&fund.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan fund: %w", err)
	}

	fund.ID = id.FundID(fundID)
	fund.Commission.Type = models.CommissionType(commissionType)
	fund.Phase = models.Phase(phase)
	if capitalTarget.Valid {
		target := capitalTarget.Float64
		fund.CapitalTarget = &target
	}
	if fund.Administrators, err = parseIDs(administrators); err != nil {
		return nil, err
	}
	if fund.Investors, err = parseIDs(investors); err != nil {
		return nil, err
	}
	fund.CapitalDistribution = map[id.IdentityID]float64{}
	if len(distribution) > 0 {
		if err := json.Unmarshal(distribution, &fund.CapitalDistribution); err != nil {
			return nil, fmt.Errorf("decode capital distribution: %w", err)
		}
	}
	return &fund, nil
}

func idStrings(ids []id.IdentityID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

func parseIDs(raw []string) ([]id.IdentityID, error) {
	out := make([]id.IdentityID, 0, len(raw))
	for _, s := range raw {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse identity id %q: %w", s, err)
		}
		out = append(out, id.IdentityID(u))
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
