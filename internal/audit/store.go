package audit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/db"
	"github.com/mediguide-lk/mediguide/internal/orchestrator"
)

// Logger records audit entries. Services depend on this rather than Store.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// Store provides persistence for audit entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.ActorType == "" {
		entry.ActorType = ActorAnonymous
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeSuccess
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, timestamp, actor_type, actor_id, action, subject,
			outcome, summary, detail, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		ts.UTC().Format(time.DateTime),
		string(entry.ActorType),
		entry.ActorID,
		string(entry.Action),
		entry.Subject,
		string(entry.Outcome),
		entry.Summary,
		entry.Detail,
		entry.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single audit entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM audit_entries WHERE id = ?", id)
	return scanInto(row)
}

const columns = "id, timestamp, actor_type, actor_id, action, subject, outcome, summary, detail, duration_ms"

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	ActorID string
	Action  Action
	// ActionPrefix matches a family of actions, e.g. "advisory.".
	ActionPrefix string
	Outcome      Outcome
	Since        *time.Time
	Until        *time.Time
	Limit        int
	Offset       int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.ActorID != "" {
		clauses = append(clauses, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.ActionPrefix != "" {
		clauses = append(clauses, "action LIKE ?")
		args = append(args, filter.ActionPrefix+"%")
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT " + columns + " FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// Observe records a settled advisory request. It satisfies
// orchestrator.Observer.
func (s *Store) Observe(ctx context.Context, ev orchestrator.Event) {
	entry := Entry{
		ActorType:  ActorAnonymous,
		ActorID:    ev.Actor,
		Action:     AdvisoryAction(ev.Request.Kind),
		Subject:    ev.Request.Describe(),
		DurationMS: ev.Duration.Milliseconds(),
	}
	if ev.Actor != "" {
		entry.ActorType = ActorUser
	}

	switch {
	case ev.Stale:
		entry.Outcome = OutcomeStale
		entry.Summary = fmt.Sprintf("superseded generation %d", ev.Generation)
	case ev.Err != nil && advisory.IsValidation(ev.Err):
		entry.Outcome = OutcomeRejected
		entry.Summary = advisory.UserMessage(ev.Err)
	case ev.Err != nil:
		entry.Outcome = OutcomeFailure
		entry.Summary = advisory.UserMessage(ev.Err)
	default:
		entry.Outcome = OutcomeSuccess
		entry.Summary = fmt.Sprintf("generation %d", ev.Generation)
	}
	if ev.Err != nil {
		entry.Detail = ev.Err.Error()
	}

	if err := s.Log(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("audit: %v", err)
	}
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                          Entry
		actorType, action, outcome string
		ts                         string
	)

	err := sc.Scan(
		&e.ID, &ts, &actorType, &e.ActorID, &action, &e.Subject,
		&outcome, &e.Summary, &e.Detail, &e.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	e.ActorType = ActorType(actorType)
	e.Action = Action(action)
	e.Outcome = Outcome(outcome)

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.Timestamp = t
	}
	return &e, nil
}
