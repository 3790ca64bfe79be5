package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/sentinel"
	"fundops/pkg/platform/tracing"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// CreateFund opens a fund in the raising phase. Every administrator must be
// an active administrator at the time of the call.
func (s *Service) CreateFund(ctx context.Context, req models.CreateFundRequest) (created *models.Fund, err error) {
	ctx, span := tracing.StartSpan(ctx, "fund.create")
	defer func() { tracing.End(span, err) }()
	start := time.Now()

	fund, err := models.NewFund(id.NewFundID(), req.FundName, req.InvestmentFirm, req.Administrators,
		req.Commission, req.CapitalTarget, requestcontext.Now(ctx))
	if err != nil {
		s.observe(ctx, "create_fund", start, err)
		return nil, err
	}

	err = s.tx.RunInTx(tx.WithLockKey(ctx, "fund:"+fund.FundName), func(txCtx context.Context) error {
		for _, adminID := range fund.Administrators {
			ok, err := s.directory.IsActiveAdministrator(txCtx, adminID)
			if err != nil {
				return err
			}
			if !ok {
				return dErrors.New(dErrors.CodeUnknownAdministrator, "administrator "+adminID.String()+" does not exist or is inactive")
			}
		}
		if err := fund.Validate(s.policy); err != nil {
			return err
		}
		if _, err := s.store.FindByName(txCtx, fund.FundName); err == nil {
			return errFundNameTaken(fund.FundName)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		// The compliance record goes first: the in-memory runner cannot undo
		// a write.
		if err := s.emitCompliance(txCtx, audit.EventFundCreated, fund.ID.String(), fund.FundName); err != nil {
			return err
		}
		if err := s.store.Create(txCtx, fund); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return errFundNameTaken(fund.FundName)
			}
			return err
		}
		return nil
	})
	s.observe(ctx, "create_fund", start, err)
	if err != nil {
		return nil, tx.AsPersistence(err, "failed to create fund")
	}

	if s.metrics != nil {
		s.metrics.IncFundCreated()
	}
	s.logAudit(ctx, audit.EventFundCreated,
		"fund_id", fund.ID.String(),
		"fund_name", fund.FundName,
		"commission_type", string(fund.Commission.Type),
	)
	return fund, nil
}

// AttachInvestor adds an investor to a raising fund. An amount is added to
// the investor's existing capital, so attaching twice tops up.
func (s *Service) AttachInvestor(ctx context.Context, req models.AttachInvestorRequest) (updated *models.Fund, err error) {
	ctx, span := tracing.StartSpan(ctx, "fund.attach_investor", "fund_id", req.FundID.String())
	defer func() { tracing.End(span, err) }()

	updated, err = s.mutate(ctx, "attach_investor", req.FundID, func(txCtx context.Context, fund *models.Fund) error {
		if err := fund.CanAttachInvestor(req.Amount); err != nil {
			return err
		}
		ok, err := s.directory.IsActiveInvestor(txCtx, req.InvestorID)
		if err != nil {
			return err
		}
		if !ok {
			return dErrors.New(dErrors.CodeUnknownInvestor, "investor "+req.InvestorID.String()+" does not exist or is inactive")
		}
		fund.ApplyAttachInvestor(req.InvestorID, req.Amount, requestcontext.Now(txCtx))
		return s.emitCompliance(txCtx, audit.EventFundInvestorAttached, fund.ID.String(),
			req.InvestorID.String()+":"+formatAmount(req.Amount))
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveInvestorAttached(req.Amount)
	}
	s.logAudit(ctx, audit.EventFundInvestorAttached,
		"fund_id", req.FundID.String(),
		"investor_id", req.InvestorID.String(),
		"amount", formatAmount(req.Amount),
	)
	return updated, nil
}

// AttachAdministrator adds an administrator to a raising fund.
func (s *Service) AttachAdministrator(ctx context.Context, fundID id.FundID, adminID id.IdentityID) (updated *models.Fund, err error) {
	ctx, span := tracing.StartSpan(ctx, "fund.attach_administrator", "fund_id", fundID.String())
	defer func() { tracing.End(span, err) }()

	updated, err = s.mutate(ctx, "attach_administrator", fundID, func(txCtx context.Context, fund *models.Fund) error {
		if err := fund.CanAttachAdministrator(); err != nil {
			return err
		}
		ok, err := s.directory.IsActiveAdministrator(txCtx, adminID)
		if err != nil {
			return err
		}
		if !ok {
			return dErrors.New(dErrors.CodeUnknownAdministrator, "administrator "+adminID.String()+" does not exist or is inactive")
		}
		fund.ApplyAttachAdministrator(adminID, requestcontext.Now(txCtx))
		return s.emitCompliance(txCtx, audit.EventFundAdminAttached, fund.ID.String(), adminID.String())
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventFundAdminAttached, "fund_id", fundID.String(), "administrator_id", adminID.String())
	return updated, nil
}

// UpdateCommission replaces the fee terms of a raising fund.
func (s *Service) UpdateCommission(ctx context.Context, fundID id.FundID, commission models.Commission) (updated *models.Fund, err error) {
	ctx, span := tracing.StartSpan(ctx, "fund.update_commission", "fund_id", fundID.String())
	defer func() { tracing.End(span, err) }()

	updated, err = s.mutate(ctx, "update_commission", fundID, func(txCtx context.Context, fund *models.Fund) error {
		if err := fund.CanUpdateCommission(commission); err != nil {
			return err
		}
		fund.ApplyCommission(commission, requestcontext.Now(txCtx))
		return s.emitCompliance(txCtx, audit.EventFundCommissionUpdated, fund.ID.String(),
			string(commission.Type)+":"+strconv.FormatFloat(commission.Value, 'f', -1, 64))
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventFundCommissionUpdated,
		"fund_id", fundID.String(),
		"commission_type", string(commission.Type),
		"commission_value", commission.Value,
	)
	return updated, nil
}

// ConcludeRaising moves a fund to the active phase. Concluding an active
// fund is an error, not a no-op.
func (s *Service) ConcludeRaising(ctx context.Context, fundID id.FundID) (updated *models.Fund, err error) {
	ctx, span := tracing.StartSpan(ctx, "fund.conclude_raising", "fund_id", fundID.String())
	defer func() { tracing.End(span, err) }()

	updated, err = s.mutate(ctx, "conclude_raising", fundID, func(txCtx context.Context, fund *models.Fund) error {
		if err := fund.CanConcludeRaising(); err != nil {
			return err
		}
		fund.ApplyConcludeRaising(requestcontext.Now(txCtx))
		return s.emitCompliance(txCtx, audit.EventFundRaisingConcluded, fund.ID.String(),
			strconv.FormatFloat(fund.TotalCapital(), 'f', -1, 64))
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncRaisingConcluded()
	}
	s.logAudit(ctx, audit.EventFundRaisingConcluded,
		"fund_id", fundID.String(),
		"total_capital", updated.TotalCapital(),
		"investors", len(updated.Investors),
	)
	return updated, nil
}

func formatAmount(amount *float64) string {
	if amount == nil {
		return "none"
	}
	return strconv.FormatFloat(*amount, 'f', -1, 64)
}

func errFundNameTaken(name string) error {
	return dErrors.New(dErrors.CodeConflict, "a fund named "+name+" already exists")
}
