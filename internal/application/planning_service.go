package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/calendar"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

// BookingStore is the remote store of already booked interview slots.
type BookingStore interface {
	// BookedSlots returns the slots a process already booked on day.
	BookedSlots(ctx context.Context, day time.Time, processID string) ([]scheduler.Slot, error)
	// ServerConflicts reports collisions of candidate slots with stored bookings,
	// keyed by scheduler.IntervalKey.
	ServerConflicts(ctx context.Context, processID string, slots []scheduler.Slot) (map[string]scheduler.Annotation, error)
}

// MetricsRecorder receives counters about planning activity.
type MetricsRecorder interface {
	SlotsGenerated(count int)
	ConflictsAnnotated(kind scheduler.ConflictKind, count int)
	SessionsActive(count int)
}

// PlanningServiceDeps captures dependencies for constructing a planning service.
type PlanningServiceDeps struct {
	Engine      *scheduler.Engine
	Bookings    BookingStore
	Metrics     MetricsRecorder
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
	SessionTTL  time.Duration
	CacheTTL    time.Duration
}

// PlanningService owns the editing sessions in which interview slots are planned.
type PlanningService struct {
	engine      *scheduler.Engine
	bookings    BookingStore
	metrics     MetricsRecorder
	sessions    *sessionStore
	cache       *annotationCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPlanningService wires dependencies for planning operations.
func NewPlanningService(deps PlanningServiceDeps) *PlanningService {
	engine := deps.Engine
	if engine == nil {
		engine = scheduler.NewEngine(scheduler.EngineOptions{IDGenerator: deps.IDGenerator})
	}
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PlanningService{
		engine:      engine,
		bookings:    deps.Bookings,
		metrics:     deps.Metrics,
		sessions:    newSessionStore(deps.SessionTTL, now),
		cache:       newAnnotationCache(deps.CacheTTL, 0, now),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(deps.Logger),
	}
}

func (s *PlanningService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanningService", operation, attrs...)
}

// OpenSession starts editing a day and seeds it with the process's booked slots.
func (s *PlanningService) OpenSession(ctx context.Context, params OpenSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "OpenSession", "process_id", params.ProcessID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to open session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session opened",
			"session_id", session.ID,
			"day", session.Day.Format(time.DateOnly),
			"scheduled_ranges", len(session.Ranges),
		)
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(params.ProcessID) == "" {
		vErr.add("process_id", "process id is required")
	}
	if params.Day.IsZero() {
		vErr.add("date", "date is required")
	}
	validatePolicy(params.Policy, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	day := scheduler.StartOfDay(params.Day, s.engine.Location())
	scheduled, err := s.scheduledRanges(ctx, day, params.ProcessID)
	if err != nil {
		return
	}

	createdAt := s.now()
	session = Session{
		ID:        s.newID("session"),
		ProcessID: strings.TrimSpace(params.ProcessID),
		Day:       day,
		Policy:    params.Policy,
		Ranges:    scheduled,
		Revision:  1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.sessions.put(session)
	s.recordSessions()
	return
}

// GetSession returns the current state of an editing session.
func (s *PlanningService) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("PlanningService is nil")
	}
	return s.sessions.get(sessionID)
}

// CloseSession discards an editing session.
func (s *PlanningService) CloseSession(ctx context.Context, sessionID string) error {
	if s == nil {
		return fmt.Errorf("PlanningService is nil")
	}
	if !s.sessions.delete(sessionID) {
		return ErrNotFound
	}
	s.cache.Forget(sessionID)
	s.recordSessions()
	s.loggerWith(ctx, "CloseSession", "session_id", sessionID).InfoContext(ctx, "session closed")
	return nil
}

// SweepExpired drops idle sessions and returns how many were removed.
func (s *PlanningService) SweepExpired(ctx context.Context) int {
	if s == nil {
		return 0
	}
	removed := s.sessions.sweep()
	for _, id := range removed {
		s.cache.Forget(id)
	}
	if len(removed) > 0 {
		s.recordSessions()
		s.loggerWith(ctx, "SweepExpired").InfoContext(ctx, "expired sessions removed", "count", len(removed))
	}
	return len(removed)
}

// AddRange appends a single or window range to the session.
func (s *PlanningService) AddRange(ctx context.Context, sessionID string, input RangeInput) (created scheduler.Range, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddRange", "session_id", sessionID, "kind", input.Kind)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to add range", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "range added", "range_id", created.ID, "slots", len(created.Slots))
	}()

	if vErr := validateRangeInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	_, err = s.sessions.update(sessionID, func(session *Session) error {
		created = s.buildRange(s.newID("range"), input, session.Day, session.Policy)
		session.Ranges = append(session.Ranges, created)
		return nil
	})
	if err != nil {
		return
	}
	s.recordSlots(created.Slots)
	return
}

// UpdateRange replaces the configuration of an existing mutable range. An empty
// kind keeps the range's current kind.
func (s *PlanningService) UpdateRange(ctx context.Context, sessionID, rangeID string, input RangeInput) (updated scheduler.Range, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRange", "session_id", sessionID, "range_id", rangeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to update range", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "range updated", "slots", len(updated.Slots))
	}()

	_, err = s.sessions.update(sessionID, func(session *Session) error {
		idx := session.rangeIndex(rangeID)
		if idx < 0 {
			return ErrNotFound
		}
		existing := session.Ranges[idx]
		if existing.Kind == scheduler.RangeKindScheduled {
			return ErrImmutableRange
		}
		if input.Kind == "" {
			input.Kind = existing.Kind
		}
		if vErr := validateRangeInput(input); vErr.HasErrors() {
			return vErr
		}
		updated = s.buildRange(existing.ID, input, session.Day, session.Policy)
		session.Ranges[idx] = updated
		return nil
	})
	if err != nil {
		return
	}
	s.recordSlots(updated.Slots)
	return
}

// RemoveRange deletes a mutable range from the session.
func (s *PlanningService) RemoveRange(ctx context.Context, sessionID, rangeID string) (err error) {
	if s == nil {
		return fmt.Errorf("PlanningService is nil")
	}

	logger := s.loggerWith(ctx, "RemoveRange", "session_id", sessionID, "range_id", rangeID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to remove range", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "range removed")
	}()

	_, err = s.sessions.update(sessionID, func(session *Session) error {
		idx := session.rangeIndex(rangeID)
		if idx < 0 {
			return ErrNotFound
		}
		if session.Ranges[idx].Kind == scheduler.RangeKindScheduled {
			return ErrImmutableRange
		}
		session.Ranges = slices.Delete(session.Ranges, idx, idx+1)
		return nil
	})
	return
}

// UpdatePolicy changes the session's duration and break and regenerates every
// mutable range.
func (s *PlanningService) UpdatePolicy(ctx context.Context, sessionID string, policy scheduler.Policy) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePolicy",
		"session_id", sessionID,
		"duration_minutes", policy.DurationMinutes,
		"break_minutes", policy.BreakMinutes,
	)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to update policy", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "policy updated", "revision", session.Revision)
	}()

	vErr := &ValidationError{}
	validatePolicy(policy, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	session, err = s.sessions.update(sessionID, func(session *Session) error {
		session.Policy = policy
		session.Ranges = s.engine.Recalculate(session.Ranges, session.Day, policy)
		return nil
	})
	if err != nil {
		return
	}
	for _, r := range session.Ranges {
		if r.Kind != scheduler.RangeKindScheduled {
			s.recordSlots(r.Slots)
		}
	}
	return
}

// Conflicts detects overlaps inside the session and merges them with the
// conflicts known to the booking store. Booking store results take precedence.
func (s *PlanningService) Conflicts(ctx context.Context, sessionID string) (report ConflictReport, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Conflicts", "session_id", sessionID)

	session, err := s.sessions.get(sessionID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load session", "error", err, "error_kind", ErrorKind(err))
		return
	}

	key := annotationCacheKey(session.ID, session.Revision)
	if cached, ok := s.cache.Get(key); ok {
		logger.DebugContext(ctx, "conflict annotations served from cache", "revision", session.Revision)
		return ConflictReport{SessionID: session.ID, Revision: session.Revision, Annotations: cached}, nil
	}

	var external map[string]scheduler.Annotation
	if s.bookings != nil {
		external, err = s.bookings.ServerConflicts(ctx, session.ProcessID, allSlots(session.Ranges))
		if err != nil {
			logger.ErrorContext(ctx, "failed to fetch server conflicts", "error", err, "error_kind", ErrorKind(err))
			err = fmt.Errorf("fetch server conflicts: %w", err)
			return
		}
	}

	annotations := s.engine.Annotate(session.Ranges, external)
	s.cache.Store(key, annotations)
	s.recordConflicts(annotations)

	logger.InfoContext(ctx, "conflicts annotated",
		"revision", session.Revision,
		"annotations", len(annotations),
		"server_conflicts", len(external),
	)
	return ConflictReport{SessionID: session.ID, Revision: session.Revision, Annotations: annotations}, nil
}

// CopyToDate transposes the session's configuration onto target and opens a new
// session for it. The target day's own bookings are seeded first.
func (s *PlanningService) CopyToDate(ctx context.Context, sessionID string, target time.Time) (copied Session, err error) {
	if s == nil {
		err = fmt.Errorf("PlanningService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CopyToDate", "session_id", sessionID)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to copy session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session copied",
			"target_session_id", copied.ID,
			"target_day", copied.Day.Format(time.DateOnly),
			"ranges", len(copied.Ranges),
		)
	}()

	if target.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	source, err := s.sessions.get(sessionID)
	if err != nil {
		return
	}

	day := scheduler.StartOfDay(target, s.engine.Location())
	scheduled, err := s.scheduledRanges(ctx, day, source.ProcessID)
	if err != nil {
		return
	}
	transposed := s.engine.Transpose(source.Ranges, day)

	createdAt := s.now()
	copied = Session{
		ID:        s.newID("session"),
		ProcessID: source.ProcessID,
		Day:       day,
		Policy:    source.Policy,
		Ranges:    append(scheduled, transposed...),
		Revision:  1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.sessions.put(copied)
	s.recordSessions()
	s.recordSlots(scheduler.PendingSlots(transposed))
	return
}

// PendingSlots returns the slots of a session that still have to be submitted
// to the booking store.
func (s *PlanningService) PendingSlots(ctx context.Context, sessionID string) ([]scheduler.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("PlanningService is nil")
	}
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	return scheduler.PendingSlots(session.Ranges), nil
}

// ExportCalendar renders every slot of a session as an iCalendar document.
func (s *PlanningService) ExportCalendar(ctx context.Context, sessionID string) (calendar.Export, error) {
	if s == nil {
		return calendar.Export{}, fmt.Errorf("PlanningService is nil")
	}
	session, err := s.sessions.get(sessionID)
	if err != nil {
		return calendar.Export{}, err
	}

	events := make([]calendar.Event, 0)
	for _, r := range session.Ranges {
		for idx, slot := range r.Slots {
			uid := slot.ID
			if uid == "" {
				uid = session.ID + "-" + scheduler.SlotKey{RangeID: r.ID, Index: idx}.String()
			}
			events = append(events, calendar.Event{
				UID:      uid,
				Summary:  "Interview slot",
				Start:    slot.Start,
				End:      slot.End,
				Location: slot.Location,
				URL:      slot.StreamLink,
				Booked:   slot.Persisted(),
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	export, err := calendar.Build(calendar.Request{
		Name:   fmt.Sprintf("Interviews %s %s", session.ProcessID, session.Day.Format(time.DateOnly)),
		Stamp:  s.now(),
		Events: events,
	})
	if err != nil {
		s.loggerWith(ctx, "ExportCalendar", "session_id", sessionID).ErrorContext(ctx, "failed to build calendar", "error", err)
		return calendar.Export{}, err
	}
	export.Filename = fmt.Sprintf("interview-slots-%s-%s.ics", slugify(session.ProcessID), session.Day.Format(time.DateOnly))
	return export, nil
}

func (s *PlanningService) buildRange(id string, input RangeInput, day time.Time, policy scheduler.Policy) scheduler.Range {
	location := strings.TrimSpace(input.Location)
	start := s.parseClock(input.Start, day)
	switch input.Kind {
	case scheduler.RangeKindWindow:
		return s.engine.NewWindow(id, start, s.parseClock(input.End, day), day, policy, location)
	default:
		return s.engine.NewSingle(id, start, day, policy, location)
	}
}

func (s *PlanningService) parseClock(value string, day time.Time) *time.Time {
	ts, ok := s.engine.ParseClock(value, day)
	if !ok {
		return nil
	}
	return &ts
}

func (s *PlanningService) scheduledRanges(ctx context.Context, day time.Time, processID string) ([]scheduler.Range, error) {
	ranges := make([]scheduler.Range, 0)
	if s.bookings == nil {
		return ranges, nil
	}
	booked, err := s.bookings.BookedSlots(ctx, day, processID)
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}
	sort.SliceStable(booked, func(i, j int) bool { return booked[i].Start.Before(booked[j].Start) })
	for _, slot := range booked {
		ranges = append(ranges, s.engine.NewScheduled(slot))
	}
	return ranges, nil
}

func (s *PlanningService) newID(prefix string) string {
	if id := s.idGenerator(); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", prefix, s.now().UnixNano())
}

func (s *PlanningService) recordSlots(slots []scheduler.Slot) {
	if s.metrics != nil {
		s.metrics.SlotsGenerated(len(slots))
	}
}

func (s *PlanningService) recordConflicts(annotations map[scheduler.SlotKey]scheduler.Annotation) {
	if s.metrics == nil {
		return
	}
	counts := make(map[scheduler.ConflictKind]int)
	for _, annotation := range annotations {
		counts[annotation.Kind]++
	}
	for kind, count := range counts {
		s.metrics.ConflictsAnnotated(kind, count)
	}
}

func (s *PlanningService) recordSessions() {
	if s.metrics != nil {
		s.metrics.SessionsActive(s.sessions.len())
	}
}

func validatePolicy(policy scheduler.Policy, vErr *ValidationError) {
	if policy.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if policy.BreakMinutes < 0 {
		vErr.add("break_minutes", "break must not be negative")
	}
}

func validateRangeInput(input RangeInput) *ValidationError {
	vErr := &ValidationError{}
	switch input.Kind {
	case scheduler.RangeKindSingle, scheduler.RangeKindWindow:
	case scheduler.RangeKindScheduled:
		vErr.add("kind", "scheduled ranges are created from bookings")
	default:
		vErr.add("kind", "kind must be single or window")
	}
	return vErr
}

func allSlots(ranges []scheduler.Range) []scheduler.Slot {
	out := make([]scheduler.Slot, 0)
	for _, r := range ranges {
		out = append(out, r.Slots...)
	}
	return out
}

func slugify(value string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
