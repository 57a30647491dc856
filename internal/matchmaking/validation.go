package matchmaking

import (
	"strings"
	"unicode/utf8"
)

const (
	minMessageLength     = 5
	maxMessageLength     = 500
	maxTotalSessions     = 100
	minSessionDuration   = 15
	maxSessionDuration   = 480
	currencyCodeLength   = 3
	minRating, maxRating = 1, 5
	defaultTotalSessions = 1
)

// Display names used when the directory cannot resolve an id.
const (
	PlaceholderUserName  = "Unknown user"
	PlaceholderSkillName = "Unknown skill"
)

// Validate checks the proposal fields and normalises the terms.
func (in *ProposalInput) Validate() error {
	if strings.TrimSpace(in.RequesterID) == "" {
		return NewError(ErrValidation, "requester_id is required")
	}
	if strings.TrimSpace(in.TargetUserID) == "" {
		return NewError(ErrValidation, "target_user_id is required")
	}
	if strings.TrimSpace(in.SkillID) == "" {
		return NewError(ErrValidation, "skill_id is required")
	}
	if in.RequesterID == in.TargetUserID {
		return NewError(ErrValidation, "cannot propose a match to yourself")
	}
	if err := validateMessage(in.Message); err != nil {
		return err
	}
	if err := in.Terms.normalize(); err != nil {
		return err
	}
	if in.Terms.ExchangeSkillID != nil && *in.Terms.ExchangeSkillID == in.SkillID {
		return NewError(ErrValidation, "exchange skill must differ from the requested skill")
	}
	return nil
}

func validateMessage(message string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(message))
	if n < minMessageLength || n > maxMessageLength {
		return NewError(ErrValidation, "message must be between %d and %d characters", minMessageLength, maxMessageLength)
	}
	return nil
}

// normalize validates the terms in place, applying defaults.
func (t *Terms) normalize() error {
	if t.IsSkillExchange && t.IsMonetary {
		return NewError(ErrValidation, "skill exchange and monetary terms are mutually exclusive")
	}
	if t.IsSkillExchange {
		if t.ExchangeSkillID == nil || strings.TrimSpace(*t.ExchangeSkillID) == "" {
			return NewError(ErrValidation, "exchange_skill_id is required for a skill exchange")
		}
	} else {
		t.ExchangeSkillID = nil
	}
	if t.IsMonetary {
		if t.OfferedAmount <= 0 {
			return NewError(ErrValidation, "offered_amount must be positive for monetary terms")
		}
		if len(t.Currency) != currencyCodeLength {
			return NewError(ErrValidation, "currency must be a 3-letter code")
		}
		t.Currency = strings.ToUpper(t.Currency)
	} else {
		t.OfferedAmount = 0
		t.Currency = ""
	}
	if t.TotalSessions == 0 {
		t.TotalSessions = defaultTotalSessions
	}
	if t.TotalSessions < 1 || t.TotalSessions > maxTotalSessions {
		return NewError(ErrValidation, "total_sessions must be between 1 and %d", maxTotalSessions)
	}
	if t.SessionDurationMinutes != 0 &&
		(t.SessionDurationMinutes < minSessionDuration || t.SessionDurationMinutes > maxSessionDuration) {
		return NewError(ErrValidation, "session_duration_minutes must be between %d and %d", minSessionDuration, maxSessionDuration)
	}
	return nil
}

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return ErrInvalidRating
	}
	return nil
}
