package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"
	"github.com/vmihailenco/msgpack/v5"
)

// store handles database operations for negotiations and matches.
type store struct {
	db *sql.DB
}

// NewStore creates a new matchmaking store.
func NewStore(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// WithinTx runs fn inside a single database transaction.
func (s *store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return mapConstraintError(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapConstraintError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// txStore implements every repository on top of one transaction.
type txStore struct {
	tx *sql.Tx
}

var _ Tx = (*txStore)(nil)

// mapConstraintError turns unique index violations and lock contention into
// optimistic conflicts: both only happen when a concurrent transaction won
// the same race.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			log.Warn("Unique constraint violated by concurrent writer", "error", err)
			return NewError(ErrConcurrentModification, "a concurrent operation already changed this negotiation")
		case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
			log.Warn("Database locked by concurrent writer", "error", err)
			return NewError(ErrConcurrentModification, "a concurrent operation is changing this negotiation")
		}
		return err
	}
	// libsql reports constraint failures as plain text.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		log.Warn("Unique constraint violated by concurrent writer", "error", err)
		return NewError(ErrConcurrentModification, "a concurrent operation already changed this negotiation")
	}
	return err
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// --- threads ---

const threadColumns = `id, participant_a, participant_b, skill_id, status, rounds, version, last_activity_at, created_at, updated_at`

func scanThread(scanner interface{ Scan(...any) error }) (*Thread, error) {
	var thread Thread
	var lastActivity, createdAt, updatedAt int64
	err := scanner.Scan(
		&thread.ID,
		&thread.ParticipantA,
		&thread.ParticipantB,
		&thread.SkillID,
		&thread.Status,
		&thread.Rounds,
		&thread.Version,
		&lastActivity,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	thread.LastActivityAt = time.Unix(lastActivity, 0)
	thread.CreatedAt = time.Unix(createdAt, 0)
	thread.UpdatedAt = time.Unix(updatedAt, 0)
	return &thread, nil
}

func (s *txStore) queryThreads(ctx context.Context, query string, args ...any) ([]*Thread, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []*Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

// GetThread retrieves a live thread by ID.
func (s *txStore) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	row := s.tx.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE id = ? AND deleted_at IS NULL`, threadID)
	thread, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "thread not found: %s", threadID)
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	return thread, nil
}

// FindLatestThread looks the pair up in both directions.
func (s *txStore) FindLatestThread(ctx context.Context, userA, userB, skillID string) (*Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads
		WHERE deleted_at IS NULL
		  AND skill_id = ?
		  AND ((participant_a = ? AND participant_b = ?) OR (participant_a = ? AND participant_b = ?))
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	row := s.tx.QueryRowContext(ctx, query, skillID, userA, userB, userB, userA)
	thread, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find thread: %w", err)
	}
	return thread, nil
}

// InsertThread creates a new thread.
func (s *txStore) InsertThread(ctx context.Context, thread *Thread) error {
	query := `
		INSERT INTO threads (
			id, participant_a, participant_b, skill_id, status, rounds, version, last_activity_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.tx.ExecContext(ctx, query,
		thread.ID,
		thread.ParticipantA,
		thread.ParticipantB,
		thread.SkillID,
		string(thread.Status),
		thread.Rounds,
		thread.Version,
		thread.LastActivityAt.Unix(),
		thread.CreatedAt.Unix(),
		thread.UpdatedAt.Unix(),
	)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to create thread: %w", err))
	}
	log.Debug("Created thread", "id", thread.ID, "skill", thread.SkillID)
	return nil
}

// UpdateThread performs the optimistic version check.
func (s *txStore) UpdateThread(ctx context.Context, thread *Thread) error {
	query := `
		UPDATE threads
		SET status = ?, rounds = ?, last_activity_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`
	result, err := s.tx.ExecContext(ctx, query,
		string(thread.Status),
		thread.Rounds,
		thread.LastActivityAt.Unix(),
		thread.UpdatedAt.Unix(),
		thread.ID,
		thread.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewError(ErrConcurrentModification, "thread %s was modified concurrently", thread.ID)
	}
	thread.Version++
	return nil
}

// ListStaleThreads returns active threads idle since before.
func (s *txStore) ListStaleThreads(ctx context.Context, before time.Time) ([]*Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads
		WHERE deleted_at IS NULL AND status = ? AND last_activity_at < ?
		ORDER BY last_activity_at ASC
	`
	return s.queryThreads(ctx, query, string(ThreadActive), before.Unix())
}

// ListThreadsForUser returns a user's threads, newest first.
func (s *txStore) ListThreadsForUser(ctx context.Context, userID string, status *ThreadStatus) ([]*Thread, error) {
	query := `
		SELECT ` + threadColumns + `
		FROM threads
		WHERE deleted_at IS NULL AND (participant_a = ? OR participant_b = ?)
	`
	args := []any{userID, userID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	return s.queryThreads(ctx, query, args...)
}

// --- match requests ---

const requestColumns = `r.id, r.thread_id, r.requester_id, r.target_user_id, r.offering_user_id, r.skill_id, r.exchange_skill_id,
	r.round, r.status, r.is_skill_exchange, r.is_monetary, r.offered_amount, r.currency, r.schedule_blob,
	r.session_duration_minutes, r.total_sessions, r.message, r.response_message, r.created_at, r.updated_at`

// requestScan collects the destinations of one request row so that it can be
// scanned on its own or as part of a match row.
type requestScan struct {
	request         MatchRequest
	exchangeSkillID sql.NullString
	offeredAmount   sql.NullInt64
	currency        sql.NullString
	scheduleBlob    []byte
	responseMessage sql.NullString
	createdAt       int64
	updatedAt       int64
}

func (rs *requestScan) dest() []any {
	r := &rs.request
	return []any{
		&r.ID,
		&r.ThreadID,
		&r.RequesterID,
		&r.TargetUserID,
		&r.OfferingUserID,
		&r.SkillID,
		&rs.exchangeSkillID,
		&r.Round,
		&r.Status,
		&r.Terms.IsSkillExchange,
		&r.Terms.IsMonetary,
		&rs.offeredAmount,
		&rs.currency,
		&rs.scheduleBlob,
		&r.Terms.SessionDurationMinutes,
		&r.Terms.TotalSessions,
		&r.Message,
		&rs.responseMessage,
		&rs.createdAt,
		&rs.updatedAt,
	}
}

func (rs *requestScan) finish() *MatchRequest {
	r := rs.request
	r.Terms.ExchangeSkillID = stringFromNull(rs.exchangeSkillID)
	r.Terms.OfferedAmount = rs.offeredAmount.Int64
	r.Terms.Currency = rs.currency.String
	r.ResponseMessage = stringFromNull(rs.responseMessage)
	r.CreatedAt = time.Unix(rs.createdAt, 0)
	r.UpdatedAt = time.Unix(rs.updatedAt, 0)
	if len(rs.scheduleBlob) > 0 {
		var schedule Schedule
		if err := msgpack.Unmarshal(rs.scheduleBlob, &schedule); err != nil {
			log.Warn("Failed to unmarshal request schedule", "error", err, "request_id", r.ID)
		} else {
			r.Terms.PreferredDays = schedule.Days
			r.Terms.PreferredTimes = schedule.Times
		}
	}
	return &r
}

// GetRequest retrieves a live request by ID.
func (s *txStore) GetRequest(ctx context.Context, requestID string) (*MatchRequest, error) {
	var rs requestScan
	row := s.tx.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM match_requests r WHERE r.id = ? AND r.deleted_at IS NULL`, requestID)
	if err := row.Scan(rs.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "match request not found: %s", requestID)
		}
		return nil, fmt.Errorf("failed to get match request: %w", err)
	}
	return rs.finish(), nil
}

// ListRequestsByThread returns the thread history ordered by round.
func (s *txStore) ListRequestsByThread(ctx context.Context, threadID string) ([]*MatchRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM match_requests r
		WHERE r.thread_id = ? AND r.deleted_at IS NULL
		ORDER BY r.round ASC, r.created_at ASC
	`
	rows, err := s.tx.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match requests: %w", err)
	}
	defer rows.Close()

	var requests []*MatchRequest
	for rows.Next() {
		var rs requestScan
		if err := rows.Scan(rs.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan match request row: %w", err)
		}
		requests = append(requests, rs.finish())
	}
	return requests, rows.Err()
}

// InsertRequest creates a new request.
func (s *txStore) InsertRequest(ctx context.Context, request *MatchRequest) error {
	var scheduleBlob []byte
	if len(request.Terms.PreferredDays) > 0 || len(request.Terms.PreferredTimes) > 0 {
		blob, err := msgpack.Marshal(Schedule{Days: request.Terms.PreferredDays, Times: request.Terms.PreferredTimes})
		if err != nil {
			return fmt.Errorf("failed to marshal schedule: %w", err)
		}
		scheduleBlob = blob
	}
	var offeredAmount, currency any
	if request.Terms.IsMonetary {
		offeredAmount = request.Terms.OfferedAmount
		currency = request.Terms.Currency
	}

	query := `
		INSERT INTO match_requests (
			id, thread_id, requester_id, target_user_id, offering_user_id, skill_id, exchange_skill_id,
			round, status, is_skill_exchange, is_monetary, offered_amount, currency, schedule_blob,
			session_duration_minutes, total_sessions, message, response_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.tx.ExecContext(ctx, query,
		request.ID,
		request.ThreadID,
		request.RequesterID,
		request.TargetUserID,
		request.OfferingUserID,
		request.SkillID,
		request.Terms.ExchangeSkillID,
		request.Round,
		string(request.Status),
		request.Terms.IsSkillExchange,
		request.Terms.IsMonetary,
		offeredAmount,
		currency,
		scheduleBlob,
		request.Terms.SessionDurationMinutes,
		request.Terms.TotalSessions,
		request.Message,
		request.ResponseMessage,
		request.CreatedAt.Unix(),
		request.UpdatedAt.Unix(),
	)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to create match request: %w", err))
	}
	log.Debug("Created match request", "id", request.ID, "thread_id", request.ThreadID, "round", request.Round)
	return nil
}

// TransitionRequest changes a request status guarded by its current status.
func (s *txStore) TransitionRequest(ctx context.Context, requestID string, from, to RequestStatus, responseMessage *string, at time.Time) error {
	query := `
		UPDATE match_requests
		SET status = ?, response_message = COALESCE(?, response_message), updated_at = ?
		WHERE id = ? AND status = ? AND deleted_at IS NULL
	`
	result, err := s.tx.ExecContext(ctx, query, string(to), responseMessage, at.Unix(), requestID, string(from))
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to update match request status: %w", err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewError(ErrConcurrentModification, "match request %s is no longer %s", requestID, from)
	}
	log.Debug("Updated match request status", "id", requestID, "from", from, "to", to)
	return nil
}

// --- matches ---

const matchColumns = `m.id, m.accepted_request_id, m.status, m.accepted_at, m.completed_at, m.dissolved_at,
	m.completed_sessions, m.next_session_at, m.rating_by_offering, m.rating_by_requesting,
	m.completion_notes, m.dissolution_reason, m.version, m.created_at, m.updated_at`

const matchSelect = `SELECT ` + matchColumns + `, ` + requestColumns + `
	FROM matches m
	JOIN match_requests r ON r.id = m.accepted_request_id`

func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var match Match
	var rs requestScan
	var acceptedAt, createdAt, updatedAt int64
	var completedAt, dissolvedAt, nextSession, ratingOffering, ratingRequesting sql.NullInt64
	var notes, reason sql.NullString

	dest := []any{
		&match.ID,
		&match.AcceptedRequestID,
		&match.Status,
		&acceptedAt,
		&completedAt,
		&dissolvedAt,
		&match.CompletedSessions,
		&nextSession,
		&ratingOffering,
		&ratingRequesting,
		&notes,
		&reason,
		&match.Version,
		&createdAt,
		&updatedAt,
	}
	if err := scanner.Scan(append(dest, rs.dest()...)...); err != nil {
		return nil, err
	}

	match.AcceptedAt = time.Unix(acceptedAt, 0)
	match.CreatedAt = time.Unix(createdAt, 0)
	match.UpdatedAt = time.Unix(updatedAt, 0)
	match.CompletedAt = timeFromNull(completedAt)
	match.DissolvedAt = timeFromNull(dissolvedAt)
	match.NextSessionDate = timeFromNull(nextSession)
	match.RatingByOffering = intFromNull(ratingOffering)
	match.RatingByRequesting = intFromNull(ratingRequesting)
	match.CompletionNotes = stringFromNull(notes)
	match.DissolutionReason = stringFromNull(reason)
	match.request = rs.finish()
	return &match, nil
}

func (s *txStore) getMatchWhere(ctx context.Context, where string, arg string) (*Match, error) {
	row := s.tx.QueryRowContext(ctx, matchSelect+` WHERE `+where+` AND m.deleted_at IS NULL`, arg)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "match not found: %s", arg)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// GetMatch retrieves a live match and its accepted request.
func (s *txStore) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	return s.getMatchWhere(ctx, `m.id = ?`, matchID)
}

// GetMatchByRequest retrieves the match created from a request.
func (s *txStore) GetMatchByRequest(ctx context.Context, requestID string) (*Match, error) {
	return s.getMatchWhere(ctx, `m.accepted_request_id = ?`, requestID)
}

// InsertMatch creates a match. The unique index on accepted_request_id keeps it 1:1.
func (s *txStore) InsertMatch(ctx context.Context, match *Match) error {
	query := `
		INSERT INTO matches (
			id, accepted_request_id, status, accepted_at, completed_sessions, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.tx.ExecContext(ctx, query,
		match.ID,
		match.AcceptedRequestID,
		string(match.Status),
		match.AcceptedAt.Unix(),
		match.CompletedSessions,
		match.Version,
		match.CreatedAt.Unix(),
		match.UpdatedAt.Unix(),
	)
	if err != nil {
		return mapConstraintError(fmt.Errorf("failed to create match: %w", err))
	}
	log.Debug("Created match", "id", match.ID, "request_id", match.AcceptedRequestID)
	return nil
}

// UpdateMatch writes the mutable lifecycle fields with an optimistic version check.
func (s *txStore) UpdateMatch(ctx context.Context, match *Match) error {
	query := `
		UPDATE matches
		SET status = ?, completed_at = ?, dissolved_at = ?, completed_sessions = ?, next_session_at = ?,
			rating_by_offering = ?, rating_by_requesting = ?, completion_notes = ?, dissolution_reason = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`
	result, err := s.tx.ExecContext(ctx, query,
		string(match.Status),
		unixOrNil(match.CompletedAt),
		unixOrNil(match.DissolvedAt),
		match.CompletedSessions,
		unixOrNil(match.NextSessionDate),
		match.RatingByOffering,
		match.RatingByRequesting,
		match.CompletionNotes,
		match.DissolutionReason,
		match.UpdatedAt.Unix(),
		match.ID,
		match.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return NewError(ErrConcurrentModification, "match %s was modified concurrently", match.ID)
	}
	match.Version++
	return nil
}

// ListMatchesForUser returns the matches a user is a party to, newest first.
func (s *txStore) ListMatchesForUser(ctx context.Context, userID string) ([]*Match, error) {
	query := matchSelect + `
		WHERE m.deleted_at IS NULL AND (r.requester_id = ? OR r.target_user_id = ?)
		ORDER BY m.created_at DESC, m.rowid DESC
	`
	rows, err := s.tx.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// --- cascade ---

func (s *txStore) softDelete(ctx context.Context, query string, args ...any) (int, error) {
	result, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func (s *txStore) DeleteMatchesForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE matches SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND accepted_request_id IN (
			SELECT id FROM match_requests WHERE requester_id = ? OR target_user_id = ?
		)`, at.Unix(), at.Unix(), userID, userID)
}

func (s *txStore) DeleteRequestsForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE match_requests SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND (requester_id = ? OR target_user_id = ?)`,
		at.Unix(), at.Unix(), userID, userID)
}

func (s *txStore) DeleteThreadsForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE threads SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND (participant_a = ? OR participant_b = ?)`,
		at.Unix(), at.Unix(), userID, userID)
}

func (s *txStore) DeleteMatchesForSkill(ctx context.Context, skillID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE matches SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND accepted_request_id IN (
			SELECT id FROM match_requests WHERE skill_id = ? OR exchange_skill_id = ?
		)`, at.Unix(), at.Unix(), skillID, skillID)
}

func (s *txStore) DeleteRequestsForSkill(ctx context.Context, skillID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE match_requests SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND (skill_id = ? OR exchange_skill_id = ?)`,
		at.Unix(), at.Unix(), skillID, skillID)
}

func (s *txStore) DeleteThreadsForSkill(ctx context.Context, skillID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE threads SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND skill_id = ?`,
		at.Unix(), at.Unix(), skillID)
}

func (s *txStore) DeleteOrphanThreadsForSkill(ctx context.Context, skillID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE threads SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL
		AND id IN (
			SELECT thread_id FROM match_requests WHERE skill_id = ? OR exchange_skill_id = ?
		)
		AND NOT EXISTS (
			SELECT 1 FROM match_requests r WHERE r.thread_id = threads.id AND r.deleted_at IS NULL
		)`, at.Unix(), at.Unix(), skillID, skillID)
}

func (s *txStore) DeleteMatch(ctx context.Context, matchID string, at time.Time) (int, error) {
	return s.softDelete(ctx, `
		UPDATE matches SET deleted_at = ?, updated_at = ?
		WHERE deleted_at IS NULL AND id = ?`,
		at.Unix(), at.Unix(), matchID)
}
