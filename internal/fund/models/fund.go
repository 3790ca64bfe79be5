package models

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
)

// Phase is the fund lifecycle state. A fund only moves forward.
type Phase string

const (
	PhaseRaising Phase = "raising"
	PhaseActive  Phase = "active"
)

func (p Phase) IsValid() bool {
	switch p {
	case PhaseRaising, PhaseActive:
		return true
	default:
		return false
	}
}

// ParsePhase accepts the lowercase wire form.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "phase must be raising or active")
	}
	return p, nil
}

type CommissionType string

const (
	CommissionFixed      CommissionType = "fixed"
	CommissionPercentual CommissionType = "percentual"
)

func ParseCommissionType(s string) (CommissionType, error) {
	switch c := CommissionType(strings.ToLower(strings.TrimSpace(s))); c {
	case CommissionFixed, CommissionPercentual:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidCommission, "commission type must be fixed or percentual")
	}
}

// Commission is a fee term. Percentual values are percentages in [0,100];
// fixed values are absolute amounts and must not be negative.
type Commission struct {
	Type  CommissionType `json:"commission_type"`
	Value float64        `json:"commission_value"`
}

func (c Commission) Validate() error {
	if !isFinite(c.Value) {
		return dErrors.New(dErrors.CodeInvalidCommission, "commission value must be a finite number")
	}
	switch c.Type {
	case CommissionPercentual:
		if c.Value < 0 || c.Value > 100 {
			return dErrors.New(dErrors.CodeInvalidCommission, "percentual commission must be between 0 and 100")
		}
	case CommissionFixed:
		if c.Value < 0 {
			return dErrors.New(dErrors.CodeInvalidCommission, "fixed commission cannot be negative")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidCommission, "commission type must be fixed or percentual")
	}
	return nil
}

// Policy holds deployment-level switches for fund invariants.
type Policy struct {
	EnforceCapitalTarget bool
}

// Fund is an investment vehicle.
//
// Invariants:
//   - FundName is non-empty and unique
//   - Commission satisfies Commission.Validate
//   - every CapitalDistribution key is in Investors, every amount is > 0
//   - Phase only moves raising -> active
//   - with Policy.EnforceCapitalTarget, TotalCapital <= CapitalTarget
type Fund struct {
	ID                  id.FundID                 `json:"id"`
	FundName            string                    `json:"fund_name"`
	InvestmentFirm      string                    `json:"investment_firm,omitempty"`
	Administrators      []id.IdentityID           `json:"administrators"`
	Investors           []id.IdentityID           `json:"investors"`
	CapitalDistribution map[id.IdentityID]float64 `json:"capital_distribution"`
	Commission          Commission                `json:"commission"`
	CapitalTarget       *float64                  `json:"capital_target,omitempty"`
	Phase               Phase                     `json:"phase"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// NewFund builds a fund in the raising phase with no investors.
func NewFund(fundID id.FundID, name, firm string, administrators []id.IdentityID, commission Commission, capitalTarget *float64, now time.Time) (*Fund, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "fund name is required")
	}
	if err := commission.Validate(); err != nil {
		return nil, err
	}
	if capitalTarget != nil && (*capitalTarget <= 0 || !isFinite(*capitalTarget)) {
		return nil, dErrors.New(dErrors.CodeValidation, "capital target must be positive")
	}
	return &Fund{
		ID:                  fundID,
		FundName:            name,
		InvestmentFirm:      strings.TrimSpace(firm),
		Administrators:      uniqueIDs(administrators),
		Investors:           []id.IdentityID{},
		CapitalDistribution: map[id.IdentityID]float64{},
		Commission:          commission,
		CapitalTarget:       capitalTarget,
		Phase:               PhaseRaising,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (f *Fund) IsRaising() bool { return f.Phase == PhaseRaising }

func (f *Fund) HasInvestor(investorID id.IdentityID) bool {
	return slices.Contains(f.Investors, investorID)
}

func (f *Fund) HasAdministrator(adminID id.IdentityID) bool {
	return slices.Contains(f.Administrators, adminID)
}

// TotalCapital sums the capital distribution. This is the fund's raised
// capital.
func (f *Fund) TotalCapital() float64 {
	var total float64
	for _, amount := range f.CapitalDistribution {
		total += amount
	}
	return total
}

func (f *Fund) requireRaising() error {
	if !f.IsRaising() {
		return dErrors.New(dErrors.CodeFundNotRaising, "fund "+f.FundName+" is no longer raising")
	}
	return nil
}

// CanAttachInvestor checks the phase and the amount, if any.
func (f *Fund) CanAttachInvestor(amount *float64) error {
	if err := f.requireRaising(); err != nil {
		return err
	}
	if amount != nil && (*amount <= 0 || !isFinite(*amount)) {
		return dErrors.New(dErrors.CodeValidation, "capital amount must be a positive finite number")
	}
	return nil
}

// ApplyAttachInvestor adds the investor once and tops up their capital.
func (f *Fund) ApplyAttachInvestor(investorID id.IdentityID, amount *float64, now time.Time) {
	if !f.HasInvestor(investorID) {
		f.Investors = append(f.Investors, investorID)
	}
	if amount != nil {
		if f.CapitalDistribution == nil {
			f.CapitalDistribution = map[id.IdentityID]float64{}
		}
		f.CapitalDistribution[investorID] += *amount
	}
	f.UpdatedAt = now
}

func (f *Fund) CanAttachAdministrator() error {
	return f.requireRaising()
}

func (f *Fund) ApplyAttachAdministrator(adminID id.IdentityID, now time.Time) {
	if !f.HasAdministrator(adminID) {
		f.Administrators = append(f.Administrators, adminID)
	}
	f.UpdatedAt = now
}

func (f *Fund) CanUpdateCommission(c Commission) error {
	if err := f.requireRaising(); err != nil {
		return err
	}
	return c.Validate()
}

func (f *Fund) ApplyCommission(c Commission, now time.Time) {
	f.Commission = c
	f.UpdatedAt = now
}

func (f *Fund) CanConcludeRaising() error {
	if f.Phase == PhaseActive {
		return dErrors.New(dErrors.CodeAlreadyActive, "fund "+f.FundName+" is already active")
	}
	return nil
}

func (f *Fund) ApplyConcludeRaising(now time.Time) {
	f.Phase = PhaseActive
	f.UpdatedAt = now
}

// Validate re-checks every invariant. Services call it after each mutation
// and before writing.
func (f *Fund) Validate(policy Policy) error {
	if strings.TrimSpace(f.FundName) == "" {
		return dErrors.New(dErrors.CodeValidation, "fund name is required")
	}
	if !f.Phase.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "fund phase is invalid")
	}
	if err := f.Commission.Validate(); err != nil {
		return err
	}
	for investorID, amount := range f.CapitalDistribution {
		if !f.HasInvestor(investorID) {
			return dErrors.New(dErrors.CodeInvariantViolation, "capital recorded for investor not attached to fund")
		}
		if amount <= 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, "capital amounts must be positive")
		}
		if !isFinite(amount) {
			return dErrors.New(dErrors.CodeValidation, "capital amount overflows")
		}
	}
	if !isFinite(f.TotalCapital()) {
		return dErrors.New(dErrors.CodeValidation, "total capital overflows")
	}
	if policy.EnforceCapitalTarget && f.CapitalTarget != nil && f.TotalCapital() > *f.CapitalTarget {
		return dErrors.New(dErrors.CodeCapitalExceeded, "capital distribution exceeds the fund's capital target")
	}
	return nil
}

// Clone returns a deep copy so stores never share slices or maps with
// callers.
func (f *Fund) Clone() *Fund {
	out := *f
	out.Administrators = slices.Clone(f.Administrators)
	out.Investors = slices.Clone(f.Investors)
	out.CapitalDistribution = maps.Clone(f.CapitalDistribution)
	if f.CapitalTarget != nil {
		target := *f.CapitalTarget
		out.CapitalTarget = &target
	}
	return &out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func uniqueIDs(ids []id.IdentityID) []id.IdentityID {
	out := make([]id.IdentityID, 0, len(ids))
	for _, v := range ids {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
