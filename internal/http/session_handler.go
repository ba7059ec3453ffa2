package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ls1intum/tum-apply-sub002/internal/application"
	"github.com/ls1intum/tum-apply-sub002/internal/calendar"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

type planningService interface {
	OpenSession(ctx context.Context, params application.OpenSessionParams) (application.Session, error)
	GetSession(ctx context.Context, sessionID string) (application.Session, error)
	CloseSession(ctx context.Context, sessionID string) error
	AddRange(ctx context.Context, sessionID string, input application.RangeInput) (scheduler.Range, error)
	UpdateRange(ctx context.Context, sessionID, rangeID string, input application.RangeInput) (scheduler.Range, error)
	RemoveRange(ctx context.Context, sessionID, rangeID string) error
	UpdatePolicy(ctx context.Context, sessionID string, policy scheduler.Policy) (application.Session, error)
	Conflicts(ctx context.Context, sessionID string) (application.ConflictReport, error)
	CopyToDate(ctx context.Context, sessionID string, target time.Time) (application.Session, error)
	PendingSlots(ctx context.Context, sessionID string) ([]scheduler.Slot, error)
	ExportCalendar(ctx context.Context, sessionID string) (calendar.Export, error)
}

// SessionHandlerOptions configures request decoding.
type SessionHandlerOptions struct {
	// Location is the zone dates and HH:MM values are interpreted in.
	Location *time.Location
	// DefaultPolicy fills duration and break when a request omits them.
	DefaultPolicy scheduler.Policy
}

// SessionHandler exposes editing sessions over HTTP.
type SessionHandler struct {
	service       planningService
	responder     responder
	logger        *slog.Logger
	location      *time.Location
	defaultPolicy scheduler.Policy
}

func NewSessionHandler(service planningService, opts SessionHandlerOptions, logger *slog.Logger) *SessionHandler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &SessionHandler{
		service:       service,
		responder:     newResponder(logger),
		logger:        defaultLogger(logger),
		location:      loc,
		defaultPolicy: opts.DefaultPolicy,
	}
}

func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r, h.logger, "SessionHandler", "Open").DebugContext(r.Context(), "invalid open request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	day, ok := h.parseDate(r.Context(), w, req.Date)
	if !ok {
		return
	}

	session, err := h.service.OpenSession(r.Context(), application.OpenSessionParams{
		Day:       day,
		ProcessID: strings.TrimSpace(req.ProcessID),
		Policy:    h.policy(req.DurationMinutes, req.BreakMinutes),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.toSessionDTO(session))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toSessionDTO(session))
}

func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.CloseSession(r.Context(), sessionID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := h.service.UpdatePolicy(r.Context(), sessionID, h.policy(req.DurationMinutes, req.BreakMinutes))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toSessionDTO(session))
}

func (h *SessionHandler) AddRange(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	created, err := h.service.AddRange(r.Context(), sessionID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.toRangeDTO(created))
}

func (h *SessionHandler) UpdateRange(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rangeID, ok := h.rangeID(w, r)
	if !ok {
		return
	}

	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	updated, err := h.service.UpdateRange(r.Context(), sessionID, rangeID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toRangeDTO(updated))
}

func (h *SessionHandler) RemoveRange(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rangeID, ok := h.rangeID(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveRange(r.Context(), sessionID, rangeID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Conflicts(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictsResponse(report))
}

func (h *SessionHandler) Copy(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r, h.logger, "SessionHandler", "Copy").DebugContext(r.Context(), "invalid copy request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	target, ok := h.parseDate(r.Context(), w, req.Date)
	if !ok {
		return
	}

	copied, err := h.service.CopyToDate(r.Context(), sessionID, target)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.toSessionDTO(copied))
}

func (h *SessionHandler) PendingSlots(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	slots, err := h.service.PendingSlots(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := pendingSlotsResponse{Slots: make([]slotDTO, 0, len(slots))}
	for _, slot := range slots {
		payload.Slots = append(payload.Slots, h.toSlotDTO(slot, ""))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *SessionHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	export, err := h.service.ExportCalendar(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		handlerLogger(r, h.logger, "SessionHandler", "Calendar").ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", false
	}
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return "", false
	}
	return id, true
}

func (h *SessionHandler) rangeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "rangeID"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRangeID)
		return "", false
	}
	return id, true
}

func (h *SessionHandler) parseDate(ctx context.Context, w http.ResponseWriter, value string) (time.Time, bool) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), h.location)
	if err != nil {
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    map[string]string{"date": "date must use the YYYY-MM-DD format"},
		})
		return time.Time{}, false
	}
	return day, true
}

func (h *SessionHandler) policy(duration, breakMinutes *int) scheduler.Policy {
	policy := h.defaultPolicy
	if duration != nil {
		policy.DurationMinutes = *duration
	}
	if breakMinutes != nil {
		policy.BreakMinutes = *breakMinutes
	}
	return policy
}

type openSessionRequest struct {
	Date            string `json:"date"`
	ProcessID       string `json:"process_id"`
	DurationMinutes *int   `json:"duration_minutes"`
	BreakMinutes    *int   `json:"break_minutes"`
}

type policyRequest struct {
	DurationMinutes *int `json:"duration_minutes"`
	BreakMinutes    *int `json:"break_minutes"`
}

type rangeRequest struct {
	Kind     string `json:"kind"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
}

func (r rangeRequest) toInput() application.RangeInput {
	return application.RangeInput{
		Kind:     scheduler.RangeKind(strings.ToLower(strings.TrimSpace(r.Kind))),
		Start:    r.Start,
		End:      r.End,
		Location: r.Location,
	}
}

type copyRequest struct {
	Date string `json:"date"`
}

type sessionDTO struct {
	ID        string     `json:"id"`
	ProcessID string     `json:"process_id"`
	Date      string     `json:"date"`
	Policy    policyDTO  `json:"policy"`
	Revision  uint64     `json:"revision"`
	Ranges    []rangeDTO `json:"ranges"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

type policyDTO struct {
	DurationMinutes int `json:"duration_minutes"`
	BreakMinutes    int `json:"break_minutes"`
}

type rangeDTO struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Start           string    `json:"start,omitempty"`
	End             string    `json:"end,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"`
	Slots           []slotDTO `json:"slots"`
}

type slotDTO struct {
	Key        string `json:"key,omitempty"`
	ID         string `json:"id,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Time       string `json:"time"`
	Location   string `json:"location,omitempty"`
	StreamLink string `json:"stream_link,omitempty"`
}

type conflictDTO struct {
	SlotKey     string `json:"slot_key"`
	RangeID     string `json:"range_id"`
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	DisplayTime string `json:"display_time,omitempty"`
}

type conflictsResponse struct {
	SessionID string        `json:"session_id"`
	Revision  uint64        `json:"revision"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type pendingSlotsResponse struct {
	Slots []slotDTO `json:"slots"`
}

func (h *SessionHandler) toSessionDTO(session application.Session) sessionDTO {
	dto := sessionDTO{
		ID:        session.ID,
		ProcessID: session.ProcessID,
		Date:      session.Day.In(h.location).Format(time.DateOnly),
		Policy: policyDTO{
			DurationMinutes: session.Policy.DurationMinutes,
			BreakMinutes:    session.Policy.BreakMinutes,
		},
		Revision:  session.Revision,
		Ranges:    make([]rangeDTO, 0, len(session.Ranges)),
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, r := range session.Ranges {
		dto.Ranges = append(dto.Ranges, h.toRangeDTO(r))
	}
	return dto
}

func (h *SessionHandler) toRangeDTO(r scheduler.Range) rangeDTO {
	dto := rangeDTO{
		ID:              r.ID,
		Kind:            string(r.Kind),
		DurationMinutes: r.DurationMinutes,
		Location:        r.Location,
		Slots:           make([]slotDTO, 0, len(r.Slots)),
	}
	if r.StartTime != nil {
		dto.Start = scheduler.FormatClock(*r.StartTime, h.location)
	}
	if r.EndTime != nil {
		dto.End = scheduler.FormatClock(*r.EndTime, h.location)
	}
	for idx, slot := range r.Slots {
		dto.Slots = append(dto.Slots, h.toSlotDTO(slot, scheduler.SlotKey{RangeID: r.ID, Index: idx}.String()))
	}
	return dto
}

func (h *SessionHandler) toSlotDTO(slot scheduler.Slot, key string) slotDTO {
	return slotDTO{
		Key:        key,
		ID:         slot.ID,
		Start:      slot.Start.Format(time.RFC3339),
		End:        slot.End.Format(time.RFC3339),
		Time:       scheduler.FormatRange(slot.Start, slot.End, h.location),
		Location:   slot.Location,
		StreamLink: slot.StreamLink,
	}
}

func toConflictsResponse(report application.ConflictReport) conflictsResponse {
	out := conflictsResponse{
		SessionID: report.SessionID,
		Revision:  report.Revision,
		Conflicts: make([]conflictDTO, 0, len(report.Annotations)),
	}
	for key, annotation := range report.Annotations {
		out.Conflicts = append(out.Conflicts, conflictDTO{
			SlotKey:     key.String(),
			RangeID:     key.RangeID,
			Index:       key.Index,
			Kind:        string(annotation.Kind),
			DisplayTime: annotation.DisplayTime,
		})
	}
	sort.Slice(out.Conflicts, func(i, j int) bool {
		if out.Conflicts[i].RangeID == out.Conflicts[j].RangeID {
			return out.Conflicts[i].Index < out.Conflicts[j].Index
		}
		return out.Conflicts[i].RangeID < out.Conflicts[j].RangeID
	})
	return out
}
