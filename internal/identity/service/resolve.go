package service

import (
	"context"
	"time"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	audit "fundops/pkg/platform/audit"
	"fundops/pkg/platform/tracing"
	"fundops/pkg/platform/tx"
	"fundops/pkg/requestcontext"
)

// Classify maps the credential matches found across both identity classes
// to an outcome. It never fails: every shape of input has a kind.
func Classify(matches []models.Match) models.AuthOutcome {
	switch len(matches) {
	case 0:
		return models.AuthOutcome{Kind: models.OutcomeUnauthenticated}
	case 1:
		m := matches[0]
		if !m.Role.IsValid() {
			return models.AuthOutcome{Kind: models.OutcomeInternalInconsistency, Matches: matches}
		}
		return models.AuthOutcome{Kind: models.OutcomeAuthenticated, Identity: &m}
	case 2:
		a, b := matches[0].Role, matches[1].Role
		switch {
		case !a.IsValid() || !b.IsValid():
			return models.AuthOutcome{Kind: models.OutcomeInternalInconsistency, Matches: matches}
		case a == b:
			return models.AuthOutcome{Kind: models.OutcomeDuplicateIdentity, Matches: matches}
		default:
			return models.AuthOutcome{Kind: models.OutcomeAmbiguousRole, Matches: matches}
		}
	default:
		return models.AuthOutcome{Kind: models.OutcomeCriticalInvariantViolation, Matches: matches}
	}
}

// Resolve digests password, looks the pair up in both identity classes and
// classifies the result. The error is non-nil only when the store fails;
// every classification, including data faults, is returned as an outcome.
func (s *Service) Resolve(ctx context.Context, email, password string) (outcome models.AuthOutcome, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "identity.resolve")
	defer func() { tracing.End(span, err) }()

	email = models.NormalizeEmail(email)
	digest := s.hasher.Digest(password)

	readCtx, cancel := tx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	matches, err := s.store.FindMatches(readCtx, email, digest)
	if err != nil {
		return models.AuthOutcome{}, tx.AsPersistence(err, "failed to look up credentials")
	}

	outcome = Classify(matches)
	s.observeOutcome(ctx, outcome, start)
	return outcome, nil
}

func (s *Service) observeOutcome(ctx context.Context, outcome models.AuthOutcome, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveResolution(string(outcome.Kind), outcome.IsDataFault(), start)
	}

	switch outcome.Kind {
	case models.OutcomeAuthenticated, models.OutcomeUnauthenticated:
		return
	case models.OutcomeAmbiguousRole:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "credentials match more than one role",
				"roles", outcome.CandidateRoles(),
				"identity_ids", matchIDs(outcome.Matches),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.emitSecurity(ctx, audit.EventAmbiguousRole, joinIDs(outcome.Matches), outcome.Matches[0].ID,
			"credential present in more than one identity class", audit.SeverityWarning)
	case models.OutcomeDuplicateIdentity, models.OutcomeInternalInconsistency, models.OutcomeCriticalInvariantViolation:
		severity := audit.SeverityWarning
		if outcome.Kind == models.OutcomeCriticalInvariantViolation {
			severity = audit.SeverityCritical
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "identity data integrity fault",
				"outcome", string(outcome.Kind),
				"severity", string(severity),
				"match_count", len(outcome.Matches),
				"identity_ids", matchIDs(outcome.Matches),
				"roles", matchRoles(outcome.Matches),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.emitSecurity(ctx, audit.EventIdentityIntegrity, joinIDs(outcome.Matches), outcome.Matches[0].ID,
			string(outcome.Kind), severity)
	}
}

// Login authenticates credentials, applies the optional role hint and mints
// a token. Failed attempts count towards the lockout for the email address.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	email := models.NormalizeEmail(req.EmailAddress)
	if email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email address and password are required")
	}
	if req.Role != "" && !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownRole, "unknown role: "+string(req.Role))
	}
	if s.tokens == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "token issuer not configured")
	}

	if s.guard != nil {
		if err := s.guard.Check(ctx, email); err != nil {
			s.emitSecurity(ctx, audit.EventAuthFailed, email, id.IdentityID{}, "locked out", audit.SeverityWarning)
			return nil, err
		}
	}

	outcome, err := s.Resolve(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	var match *models.Match
	switch outcome.Kind {
	case models.OutcomeAuthenticated:
		match = outcome.Identity
		if req.Role != "" && req.Role != match.Role {
			match = nil
		}
	case models.OutcomeAmbiguousRole:
		if req.Role == "" {
			return nil, outcome.Err()
		}
		match, _ = outcome.MatchForRole(req.Role)
	case models.OutcomeUnauthenticated:
	default:
		return nil, outcome.Err()
	}

	if match == nil {
		s.recordFailure(ctx, email)
		return nil, models.AuthOutcome{Kind: models.OutcomeUnauthenticated}.Err()
	}
	if !match.Active {
		s.emitSecurity(ctx, audit.EventAuthFailed, email, match.ID, "identity deactivated", audit.SeverityWarning)
		return nil, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}

	now := requestcontext.Now(ctx)
	token, expiresAt, err := s.tokens.Issue(*match, now)
	if err != nil {
		return nil, err
	}
	if s.guard != nil {
		s.guard.Reset(ctx, email)
	}

	s.logAudit(ctx, audit.EventLoginSucceeded,
		"identity_id", match.ID.String(),
		"role", string(match.Role),
	)
	s.emitSecurity(ctx, audit.EventLoginSucceeded, match.ID.String(), match.ID, string(match.Role), audit.SeverityInfo)

	return &models.LoginResult{Identity: *match, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	s.emitSecurity(ctx, audit.EventAuthFailed, email, id.IdentityID{}, "invalid credentials", audit.SeverityInfo)
	if s.guard == nil {
		return
	}
	locked, err := s.guard.Fail(ctx, email)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		}
		return
	}
	if locked {
		if s.metrics != nil {
			s.metrics.IncLockout()
		}
		s.emitSecurity(ctx, audit.EventAuthLockoutTriggered, email, id.IdentityID{}, "failed login threshold reached", audit.SeverityWarning)
	}
}
