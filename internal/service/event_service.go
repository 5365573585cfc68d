package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/dto"
	"github.com/dojocal/scheduler-api/internal/editor"
	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	appErrors "github.com/dojocal/scheduler-api/pkg/errors"
)

const (
	defaultAvailabilityLocation = "Discord"
	defaultLocation             = "No Location Provided"
)

// Change actions carried by EventChange.
const (
	ChangeSaved    = "event.saved"
	ChangeCanceled = "event.canceled"
	ChangeDeleted  = "event.deleted"
)

type eventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Save(ctx context.Context, ev *models.Event) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	UpdateStatus(ctx context.Context, id string, status models.EventStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type profileProvider interface {
	Profile(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
}

// EventChange describes a persisted change for downstream notification.
type EventChange struct {
	Action  string           `json:"action"`
	EventID string           `json:"eventId"`
	Kind    models.EventKind `json:"type"`
	Owner   string           `json:"owner"`
	At      time.Time        `json:"at"`
}

type changePublisher interface {
	Enqueue(jobType string, payload EventChange) (string, error)
}

// EventServiceConfig holds calendar tunables.
type EventServiceConfig struct {
	// ExpirationGap is added to an event's last end before it may be purged.
	ExpirationGap  time.Duration
	MaxOccurrences int
	MaxWindow      time.Duration
	ListTTL        time.Duration
}

// EventService exposes editor and calendar use cases.
type EventService struct {
	repo      eventRepository
	profiles  profileProvider
	catalog   *cohort.Catalog
	cache     *CacheService
	metrics   *MetricsService
	publisher changePublisher
	ics       *ICSService
	validator *validator.Validate
	logger    *zap.Logger
	config    EventServiceConfig
	now       func() time.Time
}

// EventServiceDeps groups the optional collaborators of EventService.
type EventServiceDeps struct {
	Cache     *CacheService
	Metrics   *MetricsService
	Publisher changePublisher
	ICS       *ICSService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, profiles profileProvider, catalog *cohort.Catalog, deps EventServiceDeps, cfg EventServiceConfig) *EventService {
	if catalog == nil {
		catalog = cohort.Default()
	}
	if deps.Validator == nil {
		deps.Validator = dto.NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ICS == nil {
		deps.ICS = NewICSService("")
	}
	if cfg.ExpirationGap <= 0 {
		cfg.ExpirationGap = 48 * time.Hour
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = recurrence.DefaultMaxOccurrences
	}
	if cfg.MaxWindow <= 0 {
		cfg.MaxWindow = 62 * 24 * time.Hour
	}
	return &EventService{
		repo:      repo,
		profiles:  profiles,
		catalog:   catalog,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
		ics:       deps.ICS,
		validator: deps.Validator,
		logger:    deps.Logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Catalog returns the cohort catalog used by the editor.
func (s *EventService) Catalog() *cohort.Catalog {
	return s.catalog
}

// NewDraft returns the editor defaults for a calendar selection.
func (s *EventService) NewDraft(ctx context.Context, claims *models.JWTClaims, req dto.NewDraftRequest) (*dto.DraftPayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft request")
	}
	if !req.End.After(req.Start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}
	payload := dto.FromDraft(editor.NewDraft(user, s.catalog, req.Start, req.End))
	return &payload, nil
}

// EditDraft seeds a draft from a stored event the user may edit.
func (s *EventService) EditDraft(ctx context.Context, claims *models.JWTClaims, id string) (*dto.DraftPayload, error) {
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}
	original, err := s.editable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	d, err := editor.DraftFromEvent(user, s.catalog, original)
	if err != nil {
		return nil, mapEditorError(err)
	}
	payload := dto.FromDraft(d)
	return &payload, nil
}

// SwitchKind re-shapes a draft for another event kind. Inputs for the kind
// being left are stashed; when editing, the stored event's inputs and cohorts
// come back on a switch to its own kind.
func (s *EventService) SwitchKind(ctx context.Context, claims *models.JWTClaims, req dto.SwitchKindRequest) (*dto.DraftPayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid kind switch")
	}
	user, original, d, err := s.prepare(ctx, claims, dto.EditorRequest{EventID: req.EventID, Draft: req.Draft})
	if err != nil {
		return nil, err
	}
	if err := d.SetKind(req.Type); err != nil {
		return nil, mapEditorError(err)
	}
	s.logger.Debug("draft kind switched",
		zap.String("user", user.Username),
		zap.String("from", string(req.Draft.Type)),
		zap.String("to", string(req.Type)),
		zap.Bool("editing", original != nil),
	)
	payload := dto.FromDraft(d)
	return &payload, nil
}

// Validate runs the editor validators without persisting anything. Field
// errors are returned in the result, not as an error.
func (s *EventService) Validate(ctx context.Context, claims *models.JWTClaims, req dto.EditorRequest) (*editor.Result, error) {
	user, original, d, err := s.prepare(ctx, claims, req)
	if err != nil {
		return nil, err
	}
	result, err := editor.Validate(user, original, d.Clone())
	if err != nil {
		return nil, mapEditorError(err)
	}
	s.metrics.RecordValidation(d.Kind(), result.OK())
	return &result, nil
}

// Save validates the draft, applies save-time defaults and persists the
// event. The boolean reports whether a new event was created.
func (s *EventService) Save(ctx context.Context, claims *models.JWTClaims, req dto.EditorRequest) (*models.Event, bool, error) {
	user, original, d, err := s.prepare(ctx, claims, req)
	if err != nil {
		return nil, false, err
	}
	if err := authorizeKind(user, d.Kind()); err != nil {
		return nil, false, err
	}

	result, err := editor.Validate(user, original, d.Clone())
	if err != nil {
		return nil, false, mapEditorError(err)
	}
	s.metrics.RecordValidation(d.Kind(), result.OK())
	if !result.OK() {
		return nil, false, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "event is invalid"), result.Errors.Strings())
	}

	ev := result.Event
	if err := s.applyDefaults(ev); err != nil {
		return nil, false, err
	}

	start := s.now()
	saved, err := s.repo.Save(ctx, ev)
	s.metrics.ObserveDBQuery("events.save", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save event")
	}

	created := original == nil
	s.metrics.RecordEventWrite(saved.Kind, "save")
	s.afterChange(ctx, ChangeSaved, saved)
	s.logger.Info("event saved",
		zap.String("event_id", saved.ID),
		zap.String("type", string(saved.Kind)),
		zap.String("owner", saved.Owner),
		zap.Bool("created", created),
	)
	return saved, created, nil
}

// Get returns an event visible to the user.
func (s *EventService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Event, error) {
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(user, ev) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return ev, nil
}

// List returns the events visible to the user that overlap the window,
// together with their concrete occurrences.
func (s *EventService) List(ctx context.Context, claims *models.JWTClaims, query dto.ListEventsQuery) (*dto.ListEventsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid list query")
	}
	from, to := query.Start.UTC(), query.End.UTC()
	if to.Sub(from) > s.config.MaxWindow {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested window is too large")
	}
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}

	kinds := make([]string, len(query.Types))
	for i, k := range query.Types {
		kinds[i] = string(k)
	}
	key := eventsCacheKey(from, to, kinds, query.Owner)

	var stored []models.Event
	hit, err := s.cache.Get(ctx, key, &stored)
	if err != nil {
		s.logger.Debug("event list cache unavailable, reading from database", zap.String("key", key), zap.Error(err))
	}
	if !hit {
		start := s.now()
		stored, err = s.repo.List(ctx, models.EventFilter{From: &from, To: &to, Kinds: query.Types, Owner: query.Owner})
		s.metrics.ObserveDBQuery("events.list", time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
		}
		if err := s.cache.Set(ctx, key, stored, s.config.ListTTL); err != nil {
			s.logger.Debug("event list not cached", zap.String("key", key), zap.Error(err))
		}
	}

	resp := &dto.ListEventsResponse{Events: []models.Event{}, Occurrences: []models.Occurrence{}}
	for i := range stored {
		ev := &stored[i]
		if !visibleTo(user, ev) {
			continue
		}
		occ, truncated, err := s.occurrences(ev, from, to)
		if err != nil {
			s.logger.Warn("skipping event with unreadable schedule", zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		if len(occ) == 0 {
			continue
		}
		resp.Truncated = resp.Truncated || truncated
		resp.Events = append(resp.Events, *ev)
		resp.Occurrences = append(resp.Occurrences, occ...)
	}
	sort.SliceStable(resp.Occurrences, func(i, j int) bool {
		return resp.Occurrences[i].Start < resp.Occurrences[j].Start
	})
	return resp, nil
}

// Cancel marks an event canceled.
func (s *EventService) Cancel(ctx context.Context, claims *models.JWTClaims, id string) (*models.Event, error) {
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, err
	}
	ev, err := s.editable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.EventStatusCanceled, now); err != nil {
		return nil, s.mapRepoError(err, "failed to cancel event")
	}
	ev.Status = models.EventStatusCanceled
	ev.UpdatedAt = now
	s.metrics.RecordEventWrite(ev.Kind, "cancel")
	s.afterChange(ctx, ChangeCanceled, ev)
	return ev, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return err
	}
	ev, err := s.editable(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, "failed to delete event")
	}
	s.metrics.RecordEventWrite(ev.Kind, "delete")
	s.afterChange(ctx, ChangeDeleted, ev)
	return nil
}

// ExportICS renders a visible event as an iCalendar document and returns it
// with a download filename.
func (s *EventService) ExportICS(ctx context.Context, claims *models.JWTClaims, id string) ([]byte, string, error) {
	ev, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, "", err
	}
	body, err := s.ics.Render(ev.Title, *ev)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return []byte(body), ev.ID + ".ics", nil
}

// PurgeExpired deletes events whose expiry has passed.
func (s *EventService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	start := s.now()
	n, err := s.repo.DeleteExpired(ctx, now)
	s.metrics.ObserveDBQuery("events.delete_expired", time.Since(start))
	if err != nil {
		return 0, err
	}
	s.metrics.RecordPurge(n)
	if n > 0 {
		_ = s.cache.Invalidate(ctx, eventsCachePrefix+"*")
	}
	return n, nil
}

func (s *EventService) prepare(ctx context.Context, claims *models.JWTClaims, req dto.EditorRequest) (*models.User, *models.Event, *editor.Draft, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid editor payload")
	}
	user, err := s.profiles.Profile(ctx, claims)
	if err != nil {
		return nil, nil, nil, err
	}

	if req.EventID == "" {
		d := editor.NewDraft(user, s.catalog, time.Time{}, time.Time{})
		if err := req.Draft.ApplyTo(d); err != nil {
			return nil, nil, nil, mapEditorError(err)
		}
		return user, nil, d, nil
	}

	original, err := s.editable(ctx, user, req.EventID)
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := editor.DraftFromEvent(user, s.catalog, original)
	if err != nil {
		return nil, nil, nil, mapEditorError(err)
	}
	if err := req.Draft.ApplyTo(d); err != nil {
		return nil, nil, nil, mapEditorError(err)
	}
	return user, original, d, nil
}

func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "failed to load event")
	}
	return ev, nil
}

// editable loads an event the user may change.
func (s *EventService) editable(ctx context.Context, user *models.User, id string) (*models.Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ev.Kind.Authored() {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedKind, "")
	}
	if ev.Owner != user.Username && !user.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can change this event")
	}
	return ev, nil
}

func (s *EventService) applyDefaults(ev *models.Event) error {
	if ev.Location == "" {
		if ev.Kind == models.EventKindAvailability {
			ev.Location = defaultAvailabilityLocation
		} else {
			ev.Location = defaultLocation
		}
	}

	start, err := ev.Start()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid start time")
	}
	end, err := ev.End()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid end time")
	}

	ev.ExpiresAt = end.Add(s.config.ExpirationGap)
	if ev.RRule == "" {
		return nil
	}
	last, ok, err := recurrence.LastOccurrence(ev.RRule, start)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid recurrence")
	}
	if !ok {
		ev.ExpiresAt = time.Time{}
		return nil
	}
	ev.ExpiresAt = last.Add(end.Sub(start)).Add(s.config.ExpirationGap)
	return nil
}

func (s *EventService) occurrences(ev *models.Event, from, to time.Time) ([]models.Occurrence, bool, error) {
	start, err := ev.Start()
	if err != nil {
		return nil, false, err
	}
	end, err := ev.End()
	if err != nil {
		return nil, false, err
	}
	duration := end.Sub(start)

	if ev.RRule == "" {
		if start.Before(to) && end.After(from) {
			return []models.Occurrence{occurrence(ev, start, duration)}, false, nil
		}
		return nil, false, nil
	}

	starts, truncated, err := recurrence.Occurrences(ev.RRule, start, from.Add(-duration), to, s.config.MaxOccurrences)
	if err != nil {
		return nil, false, err
	}
	out := make([]models.Occurrence, 0, len(starts))
	for _, st := range starts {
		if st.Before(to) && st.Add(duration).After(from) {
			out = append(out, occurrence(ev, st, duration))
		}
	}
	return out, truncated, nil
}

func occurrence(ev *models.Event, start time.Time, duration time.Duration) models.Occurrence {
	return models.Occurrence{
		EventID: ev.ID,
		Kind:    ev.Kind,
		Title:   ev.Title,
		Start:   models.FormatInstant(start),
		End:     models.FormatInstant(start.Add(duration)),
		Status:  ev.Status,
	}
}

func (s *EventService) afterChange(ctx context.Context, action string, ev *models.Event) {
	_ = s.cache.Invalidate(ctx, eventsCachePrefix+"*")
	if s.publisher == nil {
		return
	}
	change := EventChange{Action: action, EventID: ev.ID, Kind: ev.Kind, Owner: ev.Owner, At: s.now().UTC()}
	if _, err := s.publisher.Enqueue(action, change); err != nil {
		s.logger.Warn("event change not queued", zap.String("event_id", ev.ID), zap.String("action", action), zap.Error(err))
	}
}

func (s *EventService) mapRepoError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// authorizeKind enforces who may author each kind of event.
func authorizeKind(user *models.User, kind models.EventKind) error {
	switch kind {
	case models.EventKindDojo:
		if !user.IsAdmin() {
			return appErrors.Clone(appErrors.ErrForbidden, "only admins can create dojo events")
		}
	case models.EventKindCoaching:
		if !user.IsCoach() {
			return appErrors.Clone(appErrors.ErrForbidden, "only coaches can create coaching sessions")
		}
	}
	return nil
}

// visibleTo hides invite-only availability from everyone but the owner,
// the invitees and admins.
func visibleTo(user *models.User, ev *models.Event) bool {
	if !ev.InviteOnly || user.IsAdmin() || ev.Owner == user.Username {
		return true
	}
	for _, p := range ev.Invited {
		if p.Username == user.Username {
			return true
		}
	}
	return false
}

func mapEditorError(err error) error {
	if errors.Is(err, editor.ErrUnsupportedKind) {
		return appErrors.Clone(appErrors.ErrUnsupportedKind, "")
	}
	return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid draft")
}
