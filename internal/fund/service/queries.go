package service

import (
	"context"
	"errors"
	"strings"

	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	"fundops/pkg/platform/sentinel"
	"fundops/pkg/platform/tx"
)

// ListFunds returns every fund, or only those in phase when it is set.
func (s *Service) ListFunds(ctx context.Context, phase *models.Phase) ([]*models.Fund, error) {
	if phase != nil && !phase.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "phase must be raising or active")
	}
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	funds, err := s.store.List(readCtx, phase)
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to list funds")
	}
	return funds, nil
}

func (s *Service) GetFund(ctx context.Context, fundID id.FundID) (*models.Fund, error) {
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.find(s.store.FindByID(readCtx, fundID))
}

func (s *Service) GetFundByName(ctx context.Context, name string) (*models.Fund, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "fund name is required")
	}
	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.find(s.store.FindByName(readCtx, name))
}

func (s *Service) find(fund *models.Fund, err error) (*models.Fund, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fund not found")
		}
		return nil, tx.AsPersistence(err, "failed to load fund")
	}
	return fund, nil
}
