package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "fundops/pkg/domain-errors"
)

// IdentityID identifies an administrator or investor record.
// Administrator and investor ids share one space so fund membership
// can reference either without ambiguity.
type IdentityID uuid.UUID

// FundID identifies a fund.
type FundID uuid.UUID

// AuditEventID identifies a persisted audit event.
type AuditEventID uuid.UUID

func (i IdentityID) String() string { return uuid.UUID(i).String() }
func (i IdentityID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i FundID) String() string { return uuid.UUID(i).String() }
func (i FundID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i AuditEventID) String() string { return uuid.UUID(i).String() }

// MarshalText lets typed ids serialize as plain UUID strings and be used as JSON map keys.
func (i IdentityID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }

func (i *IdentityID) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentityID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i FundID) MarshalText() ([]byte, error) { return uuid.UUID(i).MarshalText() }

func (i *FundID) UnmarshalText(b []byte) error {
	parsed, err := ParseFundID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// NewIdentityID returns a fresh random identity id.
func NewIdentityID() IdentityID { return IdentityID(uuid.New()) }

// NewFundID returns a fresh random fund id.
func NewFundID() FundID { return FundID(uuid.New()) }

// ParseIdentityID parses s as a non-nil UUID.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parseUUID(s, "identity id")
	return IdentityID(u), err
}

// ParseFundID parses s as a non-nil UUID.
func ParseFundID(s string) (FundID, error) {
	u, err := parseUUID(s, "fund id")
	return FundID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
