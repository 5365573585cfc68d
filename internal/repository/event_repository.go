package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dojocal/scheduler-api/internal/models"
)

const eventColumns = `id, type, owner, owner_display_name, owner_cohort, owner_previous_cohort, title, start_time, end_time, types, cohorts, status, location, description, max_participants, participants, invited, invite_only, coaching, hide_from_public_discord, discord_message_id, private_discord_event_id, public_discord_event_id, rrule, expires_at, created_at, updated_at`

// eventRow is the storage shape of models.Event. Nested values are kept as jsonb.
type eventRow struct {
	ID                    string         `db:"id"`
	Type                  string         `db:"type"`
	Owner                 string         `db:"owner"`
	OwnerDisplayName      string         `db:"owner_display_name"`
	OwnerCohort           string         `db:"owner_cohort"`
	OwnerPreviousCohort   string         `db:"owner_previous_cohort"`
	Title                 string         `db:"title"`
	StartTime             time.Time      `db:"start_time"`
	EndTime               time.Time      `db:"end_time"`
	Types                 pq.StringArray `db:"types"`
	Cohorts               pq.StringArray `db:"cohorts"`
	Status                string         `db:"status"`
	Location              string         `db:"location"`
	Description           string         `db:"description"`
	MaxParticipants       int            `db:"max_participants"`
	Participants          []byte         `db:"participants"`
	Invited               []byte         `db:"invited"`
	InviteOnly            bool           `db:"invite_only"`
	Coaching              []byte         `db:"coaching"`
	HideFromPublicDiscord bool           `db:"hide_from_public_discord"`
	DiscordMessageID      string         `db:"discord_message_id"`
	PrivateDiscordEventID string         `db:"private_discord_event_id"`
	PublicDiscordEventID  string         `db:"public_discord_event_id"`
	RRule                 string         `db:"rrule"`
	ExpiresAt             sql.NullTime   `db:"expires_at"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func toEventRow(ev *models.Event) (*eventRow, error) {
	start, err := ev.Start()
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	end, err := ev.End()
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}

	participants := ev.Participants
	if participants == nil {
		participants = map[string]models.Participant{}
	}
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		return nil, fmt.Errorf("marshal participants: %w", err)
	}
	invited := ev.Invited
	if invited == nil {
		invited = []models.Participant{}
	}
	invitedJSON, err := json.Marshal(invited)
	if err != nil {
		return nil, fmt.Errorf("marshal invited: %w", err)
	}
	var coachingJSON []byte
	if ev.Coaching != nil {
		if coachingJSON, err = json.Marshal(ev.Coaching); err != nil {
			return nil, fmt.Errorf("marshal coaching: %w", err)
		}
	}

	types := make(pq.StringArray, 0, len(ev.Types))
	for _, t := range ev.Types {
		types = append(types, string(t))
	}
	cohorts := append(pq.StringArray{}, ev.Cohorts...)

	return &eventRow{
		ID:                    ev.ID,
		Type:                  string(ev.Kind),
		Owner:                 ev.Owner,
		OwnerDisplayName:      ev.OwnerDisplayName,
		OwnerCohort:           ev.OwnerCohort,
		OwnerPreviousCohort:   ev.OwnerPreviousCohort,
		Title:                 ev.Title,
		StartTime:             start,
		EndTime:               end,
		Types:                 types,
		Cohorts:               cohorts,
		Status:                string(ev.Status),
		Location:              ev.Location,
		Description:           ev.Description,
		MaxParticipants:       ev.MaxParticipants,
		Participants:          participantsJSON,
		Invited:               invitedJSON,
		InviteOnly:            ev.InviteOnly,
		Coaching:              coachingJSON,
		HideFromPublicDiscord: ev.HideFromPublicDiscord,
		DiscordMessageID:      ev.DiscordMessageID,
		PrivateDiscordEventID: ev.PrivateDiscordEventID,
		PublicDiscordEventID:  ev.PublicDiscordEventID,
		RRule:                 ev.RRule,
		ExpiresAt:             sql.NullTime{Time: ev.ExpiresAt, Valid: !ev.ExpiresAt.IsZero()},
		CreatedAt:             ev.CreatedAt,
		UpdatedAt:             ev.UpdatedAt,
	}, nil
}

func (r *eventRow) toModel() (*models.Event, error) {
	ev := &models.Event{
		ID:                    r.ID,
		Kind:                  models.EventKind(r.Type),
		Owner:                 r.Owner,
		OwnerDisplayName:      r.OwnerDisplayName,
		OwnerCohort:           r.OwnerCohort,
		OwnerPreviousCohort:   r.OwnerPreviousCohort,
		Title:                 r.Title,
		StartTime:             models.FormatInstant(r.StartTime),
		EndTime:               models.FormatInstant(r.EndTime),
		Types:                 make([]models.AvailabilityType, 0, len(r.Types)),
		Cohorts:               append([]string{}, r.Cohorts...),
		Status:                models.EventStatus(r.Status),
		Location:              r.Location,
		Description:           r.Description,
		MaxParticipants:       r.MaxParticipants,
		Participants:          map[string]models.Participant{},
		InviteOnly:            r.InviteOnly,
		HideFromPublicDiscord: r.HideFromPublicDiscord,
		DiscordMessageID:      r.DiscordMessageID,
		PrivateDiscordEventID: r.PrivateDiscordEventID,
		PublicDiscordEventID:  r.PublicDiscordEventID,
		RRule:                 r.RRule,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	for _, t := range r.Types {
		ev.Types = append(ev.Types, models.AvailabilityType(t))
	}
	if r.ExpiresAt.Valid {
		ev.ExpiresAt = r.ExpiresAt.Time.UTC()
	}
	if len(r.Participants) > 0 {
		if err := json.Unmarshal(r.Participants, &ev.Participants); err != nil {
			return nil, fmt.Errorf("unmarshal participants: %w", err)
		}
	}
	if len(r.Invited) > 0 {
		if err := json.Unmarshal(r.Invited, &ev.Invited); err != nil {
			return nil, fmt.Errorf("unmarshal invited: %w", err)
		}
	}
	if len(r.Coaching) > 0 && string(r.Coaching) != "null" {
		var coaching models.Coaching
		if err := json.Unmarshal(r.Coaching, &coaching); err != nil {
			return nil, fmt.Errorf("unmarshal coaching: %w", err)
		}
		ev.Coaching = &coaching
	}
	return ev, nil
}

// EventRepository persists calendar events in Postgres.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// FindByID returns a single event.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 LIMIT 1`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return row.toModel()
}

// Save inserts the event or replaces the stored copy with the same id. New
// events receive an id. The stored event is returned.
func (r *EventRepository) Save(ctx context.Context, ev *models.Event) (*models.Event, error) {
	out := ev.Clone()
	now := time.Now().UTC()
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	row, err := toEventRow(out)
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO events (id, type, owner, owner_display_name, owner_cohort, owner_previous_cohort, title, start_time, end_time, types, cohorts, status, location, description, max_participants, participants, invited, invite_only, coaching, hide_from_public_discord, discord_message_id, private_discord_event_id, public_discord_event_id, rrule, expires_at, created_at, updated_at)
VALUES (:id, :type, :owner, :owner_display_name, :owner_cohort, :owner_previous_cohort, :title, :start_time, :end_time, :types, :cohorts, :status, :location, :description, :max_participants, :participants, :invited, :invite_only, :coaching, :hide_from_public_discord, :discord_message_id, :private_discord_event_id, :public_discord_event_id, :rrule, :expires_at, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, owner = EXCLUDED.owner, owner_display_name = EXCLUDED.owner_display_name, owner_cohort = EXCLUDED.owner_cohort, owner_previous_cohort = EXCLUDED.owner_previous_cohort, title = EXCLUDED.title, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, types = EXCLUDED.types, cohorts = EXCLUDED.cohorts, status = EXCLUDED.status, location = EXCLUDED.location, description = EXCLUDED.description, max_participants = EXCLUDED.max_participants, participants = EXCLUDED.participants, invited = EXCLUDED.invited, invite_only = EXCLUDED.invite_only, coaching = EXCLUDED.coaching, hide_from_public_discord = EXCLUDED.hide_from_public_discord, discord_message_id = EXCLUDED.discord_message_id, private_discord_event_id = EXCLUDED.private_discord_event_id, public_discord_event_id = EXCLUDED.public_discord_event_id, rrule = EXCLUDED.rrule, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return out, nil
}

// List returns events matching the filter ordered by start time. With a time
// window, recurring events are always included so their occurrences can be
// expanded by the caller.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil && filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("((start_time < $%d AND end_time > $%d) OR rrule <> '')", len(args)+1, len(args)+2))
		args = append(args, filter.To.UTC(), filter.From.UTC())
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			kinds[i] = string(k)
		}
		conditions = append(conditions, fmt.Sprintf("type = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(kinds))
	}
	if filter.Owner != "" {
		conditions = append(conditions, fmt.Sprintf("owner = $%d", len(args)+1))
		args = append(args, filter.Owner)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC"

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]models.Event, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}

// UpdateStatus changes the status of an event.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus, updatedAt time.Time) error {
	const query = `UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM events WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res)
}

// DeleteExpired removes events whose expiry lies before now and returns the
// number of rows removed.
func (r *EventRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM events WHERE expires_at IS NOT NULL AND expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired events: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
