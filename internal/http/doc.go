// Package http provides HTTP handlers and middleware for the slot planner API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness probe.
//   - GET /metrics: Prometheus exposition of the planner collectors.
//   - POST /sessions: opens an editing session for one day of an interview process.
//     Body: {"date","process_id","duration_minutes","break_minutes"}. Omitted policy
//     fields fall back to the configured defaults. Already booked slots of that day are
//     returned as ranges of kind "scheduled".
//   - GET /sessions/{sessionID}, DELETE /sessions/{sessionID}: read or discard a session.
//   - PUT /sessions/{sessionID}/policy: changes duration/break and regenerates every
//     single and window range.
//   - POST /sessions/{sessionID}/ranges, PUT and DELETE /sessions/{sessionID}/ranges/{rangeID}:
//     edit range configurations exchanging the `rangeRequest`/`rangeDTO` payloads defined
//     in session_handler.go. Scheduled ranges answer 409.
//   - GET /sessions/{sessionID}/conflicts: merged conflict annotations keyed by slot.
//   - POST /sessions/{sessionID}/copy: copies the configuration onto {"date"} and returns
//     the new session.
//   - GET /sessions/{sessionID}/slots: slots that still have to be submitted.
//   - GET /sessions/{sessionID}/calendar.ics: iCalendar export of every slot.
//
// Request/response DTOs live alongside their handlers so tests and documentation
// share the same ground truth.
package http
