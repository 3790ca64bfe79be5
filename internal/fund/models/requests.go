package models

import (
	id "fundops/pkg/domain"
)

// CreateFundRequest opens a new fund in the raising phase.
type CreateFundRequest struct {
	FundName       string
	InvestmentFirm string
	Administrators []id.IdentityID
	Commission     Commission
	CapitalTarget  *float64
}

// AttachInvestorRequest adds an investor and optionally tops up their
// committed capital.
type AttachInvestorRequest struct {
	FundID     id.FundID
	InvestorID id.IdentityID
	Amount     *float64
}
