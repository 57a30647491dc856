package matchmaking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ThreadStatus represents the state of a negotiation thread.
type ThreadStatus string

const (
	ThreadActive           ThreadStatus = "ACTIVE"
	ThreadAgreementReached ThreadStatus = "AGREEMENT_REACHED"
	ThreadNoAgreement      ThreadStatus = "NO_AGREEMENT"
	ThreadExpired          ThreadStatus = "EXPIRED"
)

// Valid reports whether s is one of the known thread states.
func (s ThreadStatus) Valid() bool {
	switch s {
	case ThreadActive, ThreadAgreementReached, ThreadNoAgreement, ThreadExpired:
		return true
	}
	return false
}

// ParseThreadStatus converts a client supplied value into a ThreadStatus.
func ParseThreadStatus(v string) (ThreadStatus, error) {
	status := ThreadStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !status.Valid() {
		return "", NewError(ErrValidation, "unknown thread status %q", v)
	}
	return status, nil
}

// IsTerminal reports whether no further requests may be added to the thread.
func (s ThreadStatus) IsTerminal() bool {
	return s != ThreadActive
}

// Scan implements sql.Scanner and rejects unknown states.
func (s *ThreadStatus) Scan(src any) error {
	v, err := scanEnum(src)
	if err != nil {
		return err
	}
	status := ThreadStatus(v)
	if !status.Valid() {
		return fmt.Errorf("unknown thread status %q", v)
	}
	*s = status
	return nil
}

// RequestStatus represents the state of a single match request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "PENDING"
	RequestAccepted   RequestStatus = "ACCEPTED"
	RequestRejected   RequestStatus = "REJECTED"
	RequestExpired    RequestStatus = "EXPIRED"
	RequestSuperseded RequestStatus = "SUPERSEDED"
)

// Valid reports whether s is one of the known request states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected, RequestExpired, RequestSuperseded:
		return true
	}
	return false
}

// IsTerminal reports whether the request can no longer change state.
func (s RequestStatus) IsTerminal() bool {
	return s != RequestPending
}

// Scan implements sql.Scanner and rejects unknown states.
func (s *RequestStatus) Scan(src any) error {
	v, err := scanEnum(src)
	if err != nil {
		return err
	}
	status := RequestStatus(v)
	if !status.Valid() {
		return fmt.Errorf("unknown request status %q", v)
	}
	*s = status
	return nil
}

// MatchStatus represents the state of an agreed match.
type MatchStatus string

const (
	MatchAccepted  MatchStatus = "ACCEPTED"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchDissolved MatchStatus = "DISSOLVED"
)

// Valid reports whether s is one of the known match states.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchAccepted, MatchCompleted, MatchDissolved:
		return true
	}
	return false
}

// Scan implements sql.Scanner and rejects unknown states.
func (s *MatchStatus) Scan(src any) error {
	v, err := scanEnum(src)
	if err != nil {
		return err
	}
	status := MatchStatus(v)
	if !status.Valid() {
		return fmt.Errorf("unknown match status %q", v)
	}
	*s = status
	return nil
}

func scanEnum(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into a status", src)
	}
}

// Thread groups every request exchanged between two users over one skill.
// ParticipantA opened the negotiation, ParticipantB owns the skill.
type Thread struct {
	ID             string       `json:"id"`
	ParticipantA   string       `json:"participant_a"`
	ParticipantB   string       `json:"participant_b"`
	SkillID        string       `json:"skill_id"`
	Status         ThreadStatus `json:"status"`
	Rounds         int          `json:"rounds"`
	Version        int64        `json:"version"`
	LastActivityAt time.Time    `json:"last_activity_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two negotiating users.
func (t *Thread) HasParticipant(userID string) bool {
	return t.ParticipantA == userID || t.ParticipantB == userID
}

// Schedule is the preferred days and times of a proposal.
type Schedule struct {
	Days  []string `json:"days,omitempty" msgpack:"days"`
	Times []string `json:"times,omitempty" msgpack:"times"`
}

// Terms are the negotiable parts of a proposal.
type Terms struct {
	IsSkillExchange        bool     `json:"is_skill_exchange"`
	ExchangeSkillID        *string  `json:"exchange_skill_id,omitempty"`
	IsMonetary             bool     `json:"is_monetary"`
	OfferedAmount          int64    `json:"offered_amount,omitempty"` // minor units, per session
	Currency               string   `json:"currency,omitempty"`
	PreferredDays          []string `json:"preferred_days,omitempty"`
	PreferredTimes         []string `json:"preferred_times,omitempty"`
	SessionDurationMinutes int      `json:"session_duration_minutes,omitempty"`
	TotalSessions          int      `json:"total_sessions"`
}

// MatchRequest is a single proposal or counter-offer within a thread.
type MatchRequest struct {
	ID              string        `json:"id"`
	ThreadID        string        `json:"thread_id"`
	RequesterID     string        `json:"requester_id"`
	TargetUserID    string        `json:"target_user_id"`
	OfferingUserID  string        `json:"offering_user_id"`
	SkillID         string        `json:"skill_id"`
	Round           int           `json:"round"`
	Status          RequestStatus `json:"status"`
	Terms           Terms         `json:"terms"`
	Message         string        `json:"message"`
	ResponseMessage *string       `json:"response_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ExchangeSkillID returns the skill offered in exchange, if any.
func (r *MatchRequest) ExchangeSkillID() string {
	if r.Terms.ExchangeSkillID == nil {
		return ""
	}
	return *r.Terms.ExchangeSkillID
}

// RequestingUserID is the participant who receives the skill.
func (r *MatchRequest) RequestingUserID() string {
	if r.RequesterID == r.OfferingUserID {
		return r.TargetUserID
	}
	return r.RequesterID
}

// Match is the agreement created when a request is accepted.
// Negotiated terms are read through the accepted request and never copied.
type Match struct {
	ID                 string      `json:"id"`
	AcceptedRequestID  string      `json:"accepted_request_id"`
	Status             MatchStatus `json:"status"`
	AcceptedAt         time.Time   `json:"accepted_at"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	DissolvedAt        *time.Time  `json:"dissolved_at,omitempty"`
	CompletedSessions  int         `json:"completed_sessions"`
	NextSessionDate    *time.Time  `json:"next_session_date,omitempty"`
	RatingByOffering   *int        `json:"rating_by_offering,omitempty"`
	RatingByRequesting *int        `json:"rating_by_requesting,omitempty"`
	CompletionNotes    *string     `json:"completion_notes,omitempty"`
	DissolutionReason  *string     `json:"dissolution_reason,omitempty"`
	Version            int64       `json:"version"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	request *MatchRequest
}

// AcceptedRequest returns the request the match was created from.
func (m *Match) AcceptedRequest() *MatchRequest {
	return m.request
}

func (m *Match) OfferingUserID() string {
	return m.request.OfferingUserID
}

func (m *Match) RequestingUserID() string {
	return m.request.RequestingUserID()
}

func (m *Match) SkillID() string {
	return m.request.SkillID
}

func (m *Match) ExchangeSkillID() string {
	return m.request.ExchangeSkillID()
}

// TotalSessionsPlanned is the number of sessions agreed in the accepted request.
func (m *Match) TotalSessionsPlanned() int {
	if m.request.Terms.TotalSessions < 1 {
		return 1
	}
	return m.request.Terms.TotalSessions
}

// MarshalJSON adds the negotiated fields of the accepted request, so clients
// see who offers, who requests and what was agreed.
func (m Match) MarshalJSON() ([]byte, error) {
	type plain Match
	if m.request == nil {
		return json.Marshal(plain(m))
	}
	return json.Marshal(struct {
		plain
		ThreadID             string `json:"thread_id"`
		SkillID              string `json:"skill_id"`
		ExchangeSkillID      string `json:"exchange_skill_id,omitempty"`
		OfferingUserID       string `json:"offering_user_id"`
		RequestingUserID     string `json:"requesting_user_id"`
		TotalSessionsPlanned int    `json:"total_sessions_planned"`
		Terms                Terms  `json:"terms"`
	}{
		plain:                plain(m),
		ThreadID:             m.request.ThreadID,
		SkillID:              m.SkillID(),
		ExchangeSkillID:      m.ExchangeSkillID(),
		OfferingUserID:       m.OfferingUserID(),
		RequestingUserID:     m.RequestingUserID(),
		TotalSessionsPlanned: m.TotalSessionsPlanned(),
		Terms:                m.request.Terms,
	})
}

// HasParticipant reports whether userID is one of the two matched users.
func (m *Match) HasParticipant(userID string) bool {
	return m.request.RequesterID == userID || m.request.TargetUserID == userID
}

// ProposalInput carries everything needed to open or continue a negotiation.
type ProposalInput struct {
	RequesterID  string `json:"requester_id"`
	TargetUserID string `json:"target_user_id"`
	SkillID      string `json:"skill_id"`
	Terms        Terms  `json:"terms"`
	Message      string `json:"message"`
}

// RequestEvent is published whenever a request is created, accepted or rejected.
type RequestEvent struct {
	RequestID     string    `json:"request_id" msgpack:"request_id"`
	ThreadID      string    `json:"thread_id" msgpack:"thread_id"`
	RequesterID   string    `json:"requester_id" msgpack:"requester_id"`
	RequesterName string    `json:"requester_name" msgpack:"requester_name"`
	TargetUserID  string    `json:"target_user_id" msgpack:"target_user_id"`
	TargetName    string    `json:"target_name" msgpack:"target_name"`
	SkillID       string    `json:"skill_id" msgpack:"skill_id"`
	SkillName     string    `json:"skill_name" msgpack:"skill_name"`
	Round         int       `json:"round" msgpack:"round"`
	MatchID       string    `json:"match_id,omitempty" msgpack:"match_id,omitempty"`
	Reason        string    `json:"reason,omitempty" msgpack:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at" msgpack:"occurred_at"`
}
