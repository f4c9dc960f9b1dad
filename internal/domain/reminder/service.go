package reminder

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	prefs         PreferenceRepository
	defaultLead   int
	defaultResend int
}

// NewService wires the preference store with the deployment-wide defaults
// applied when an owner has no stored row or leaves a field zero. Zero
// defaults fall back to the package constants.
func NewService(prefs PreferenceRepository, defaultLeadDays, defaultResendHours int) *Service {
	if defaultLeadDays <= 0 {
		defaultLeadDays = DefaultLeadTimeDays
	}
	if defaultResendHours <= 0 {
		defaultResendHours = DefaultResendIntervalHours
	}
	return &Service{prefs: prefs, defaultLead: defaultLeadDays, defaultResend: defaultResendHours}
}

// GetPreference returns the stored preference for an owner, or the defaults
// when no row exists.
func (s *Service) GetPreference(ctx context.Context, ownerID string) (*Preference, error) {
	p, err := s.prefs.GetByOwner(ctx, ownerID)
	if errors.Is(err, ErrNoPreference) {
		return &Preference{
			OwnerID:             ownerID,
			LeadTimeDays:        s.defaultLead,
			ResendIntervalHours: s.defaultResend,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PutPreference validates and upserts an owner's preference. Zero-valued
// lead time and resend interval fall back to the defaults.
func (s *Service) PutPreference(ctx context.Context, p *Preference) error {
	if p.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if p.LeadTimeDays == 0 {
		p.LeadTimeDays = s.defaultLead
	}
	if p.ResendIntervalHours == 0 {
		p.ResendIntervalHours = s.defaultResend
	}
	if p.LeadTimeDays < 1 || p.LeadTimeDays > MaxLeadTimeDays {
		return fmt.Errorf("lead_time_days must be between 1 and %d", MaxLeadTimeDays)
	}
	if p.ResendIntervalHours < 1 {
		return fmt.Errorf("resend_interval_hours must be at least 1")
	}
	if p.Enabled && p.Email == "" {
		return fmt.Errorf("email is required when reminders are enabled")
	}
	return s.prefs.Upsert(ctx, p)
}
