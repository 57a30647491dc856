package inngest

import (
	"github.com/inngest/inngestgo"
)

// Event names published by the user, skill and match owners.
const (
	EventUserDeleted  = "user/deleted"
	EventSkillDeleted = "skill/deleted"
	EventMatchDeleted = "match/deleted"
)

type client struct {
	inngestClient inngestgo.Client
	jobs          *jobs
}

// SweepResult is the output of a sweep run.
type SweepResult struct {
	Expired int `json:"expired"`
}
