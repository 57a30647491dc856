package cascade

// UserDeleted is published by the user service once a user is removed.
type UserDeleted struct {
	UserID string `json:"user_id" msgpack:"user_id"`
}

// SkillDeleted is published by the skill catalogue once a skill is removed.
type SkillDeleted struct {
	SkillID string `json:"skill_id" msgpack:"skill_id"`
}

// MatchDeleted asks for a single match to be removed.
type MatchDeleted struct {
	MatchID string `json:"match_id" msgpack:"match_id"`
}

// Result counts the rows a handler removed. A redelivered event yields zeros.
type Result struct {
	Matches  int `json:"matches"`
	Requests int `json:"requests"`
	Threads  int `json:"threads"`
}

// Total is the number of rows removed across all tables.
func (r Result) Total() int {
	return r.Matches + r.Requests + r.Threads
}
