package handler

import (
	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
)

type commissionRequest struct {
	Type  string   `json:"type" validate:"required,oneof=fixed percentual"`
	Value *float64 `json:"value" validate:"required"`
}

func (c commissionRequest) toModel() models.Commission {
	return models.Commission{Type: models.CommissionType(c.Type), Value: *c.Value}
}

type createFundRequest struct {
	FundName       string            `json:"fund_name" validate:"required,max=200"`
	InvestmentFirm string            `json:"investment_firm" validate:"max=200"`
	Administrators []string          `json:"administrators" validate:"dive,uuid"`
	Commission     commissionRequest `json:"commission"`
	CapitalTarget  *float64          `json:"capital_target" validate:"omitempty,gt=0"`
}

type attachInvestorRequest struct {
	InvestorID string   `json:"investor_id" validate:"required,uuid"`
	Amount     *float64 `json:"amount" validate:"omitempty,gt=0"`
}

type attachAdministratorRequest struct {
	AdministratorID string `json:"administrator_id" validate:"required,uuid"`
}

type fundListResponse struct {
	Funds []*models.Fund `json:"funds"`
}

func parseIdentityIDs(raw []string) ([]id.IdentityID, error) {
	out := make([]id.IdentityID, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.ParseIdentityID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
