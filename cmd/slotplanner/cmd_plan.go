package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ls1intum/tum-apply-sub002/internal/bookingstore"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

var (
	planFile     string
	planCopyTo   string
	planBookings string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate slots and conflicts for a YAML day definition",
	Long: `Plan one day offline and print the result as JSON.

The day file lists the policy, the ranges and any conflicts already known to
the booking store:

  date: 2025-03-14
  process_id: process-1
  policy:
    duration_minutes: 30
    break_minutes: 0
  ranges:
    - id: morning
      kind: window
      start: "09:00"
      end: "10:00"
      location: https://zoom.us/j/1
  external_conflicts:
    - start: "09:00"
      end: "09:30"
      kind: booked_elsewhere
      display_time: "09:00 - 09:30"

Examples:
  slotplanner plan --file day.yaml
  slotplanner plan --file day.yaml --copy-to 2025-03-21
  slotplanner plan --file day.yaml --bookings bookings.yaml
`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "Path to the YAML day definition")
	planCmd.Flags().StringVar(&planCopyTo, "copy-to", "", "Also copy the configuration to this YYYY-MM-DD date")
	planCmd.Flags().StringVar(&planBookings, "bookings", "", "YAML bookings file used for scheduled slots and server conflicts")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	data, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("read day file: %w", err)
	}
	var def dayFile
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("decode day file: %w", err)
	}

	var bookings *bookingstore.Memory
	if planBookings != "" {
		bookings = bookingstore.NewMemory(cfg.Location)
		if _, err := bookings.LoadFile(planBookings); err != nil {
			return err
		}
	}

	out, err := planDay(cmd.Context(), newEngine(cfg), def, planOptions{
		CopyTo:   planCopyTo,
		Bookings: bookings,
		Policy:   scheduler.Policy{DurationMinutes: cfg.DefaultDurationMinutes, BreakMinutes: cfg.DefaultBreakMinutes},
	})
	if err != nil {
		return err
	}
	return writePlan(cmd.OutOrStdout(), out)
}

type dayFile struct {
	Date              string             `yaml:"date"`
	ProcessID         string             `yaml:"process_id"`
	Policy            *dayPolicy         `yaml:"policy"`
	Ranges            []dayRange         `yaml:"ranges"`
	ExternalConflicts []externalConflict `yaml:"external_conflicts"`
}

type dayPolicy struct {
	DurationMinutes *int `yaml:"duration_minutes"`
	BreakMinutes    *int `yaml:"break_minutes"`
}

type dayRange struct {
	ID       string `yaml:"id"`
	Kind     string `yaml:"kind"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Location string `yaml:"location"`
	// SlotID marks a scheduled range with the id of its persisted slot.
	SlotID string `yaml:"slot_id"`
}

type externalConflict struct {
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Kind        string `yaml:"kind"`
	DisplayTime string `yaml:"display_time"`
}

type planOptions struct {
	CopyTo   string
	Bookings *bookingstore.Memory
	Policy   scheduler.Policy
}

type planOutput struct {
	Date        string          `json:"date"`
	Policy      planPolicy      `json:"policy"`
	Ranges      []planRange     `json:"ranges"`
	Annotations []planConflict  `json:"annotations"`
	Pending     []planSlot      `json:"pending"`
	Copy        *planCopyOutput `json:"copy,omitempty"`
}

type planPolicy struct {
	DurationMinutes int `json:"duration_minutes"`
	BreakMinutes    int `json:"break_minutes"`
}

type planCopyOutput struct {
	Date   string      `json:"date"`
	Ranges []planRange `json:"ranges"`
}

type planRange struct {
	ID    string     `json:"id"`
	Kind  string     `json:"kind"`
	Start string     `json:"start,omitempty"`
	End   string     `json:"end,omitempty"`
	Slots []planSlot `json:"slots"`
}

type planSlot struct {
	Key        string `json:"key,omitempty"`
	ID         string `json:"id,omitempty"`
	Time       string `json:"time"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Location   string `json:"location,omitempty"`
	StreamLink string `json:"stream_link,omitempty"`
}

type planConflict struct {
	SlotKey     string `json:"slot_key"`
	Kind        string `json:"kind"`
	DisplayTime string `json:"display_time,omitempty"`
}

// planDay generates every range of def, annotates conflicts and optionally
// transposes the result onto opts.CopyTo.
func planDay(ctx context.Context, engine *scheduler.Engine, def dayFile, opts planOptions) (planOutput, error) {
	loc := engine.Location()
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(def.Date), loc)
	if err != nil {
		return planOutput{}, fmt.Errorf("date %q must use the YYYY-MM-DD format", def.Date)
	}

	policy := opts.Policy
	if def.Policy != nil {
		if def.Policy.DurationMinutes != nil {
			policy.DurationMinutes = *def.Policy.DurationMinutes
		}
		if def.Policy.BreakMinutes != nil {
			policy.BreakMinutes = *def.Policy.BreakMinutes
		}
	}
	if policy.DurationMinutes <= 0 || policy.BreakMinutes < 0 {
		return planOutput{}, fmt.Errorf("policy must have a positive duration and a non-negative break")
	}

	ranges := make([]scheduler.Range, 0, len(def.Ranges))
	if opts.Bookings != nil {
		booked, err := opts.Bookings.BookedSlots(ctx, day, def.ProcessID)
		if err != nil {
			return planOutput{}, err
		}
		for _, slot := range booked {
			ranges = append(ranges, engine.NewScheduled(slot))
		}
	}

	for i, entry := range def.Ranges {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = fmt.Sprintf("range-%d", i+1)
		}
		start := parseClockPtr(engine, entry.Start, day)
		end := parseClockPtr(engine, entry.End, day)

		switch scheduler.RangeKind(strings.ToLower(strings.TrimSpace(entry.Kind))) {
		case scheduler.RangeKindWindow:
			ranges = append(ranges, engine.NewWindow(id, start, end, day, policy, entry.Location))
		case scheduler.RangeKindScheduled:
			if start == nil || end == nil || !end.After(*start) {
				return planOutput{}, fmt.Errorf("range %s: scheduled ranges need a start before their end", id)
			}
			slotID := strings.TrimSpace(entry.SlotID)
			if slotID == "" {
				slotID = id
			}
			ranges = append(ranges, engine.NewScheduled(scheduler.Slot{ID: slotID, Start: *start, End: *end, Location: entry.Location}))
		case scheduler.RangeKindSingle, "":
			ranges = append(ranges, engine.NewSingle(id, start, day, policy, entry.Location))
		default:
			return planOutput{}, fmt.Errorf("range %s: unknown kind %q", id, entry.Kind)
		}
	}

	seen := make(map[string]struct{}, len(ranges))
	for _, r := range ranges {
		if _, dup := seen[r.ID]; dup {
			return planOutput{}, fmt.Errorf("range %s: duplicate id", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	external := make(map[string]scheduler.Annotation)
	if opts.Bookings != nil {
		server, err := opts.Bookings.ServerConflicts(ctx, def.ProcessID, scheduler.PendingSlots(ranges))
		if err != nil {
			return planOutput{}, err
		}
		for key, annotation := range server {
			external[key] = annotation
		}
	}
	for _, conflict := range def.ExternalConflicts {
		start := parseClockPtr(engine, conflict.Start, day)
		end := parseClockPtr(engine, conflict.End, day)
		if start == nil || end == nil {
			continue
		}
		external[scheduler.IntervalKey(*start, *end)] = scheduler.Annotation{
			Kind:        scheduler.ConflictKind(strings.TrimSpace(conflict.Kind)),
			DisplayTime: conflict.DisplayTime,
		}
	}

	out := planOutput{
		Date:        day.Format(time.DateOnly),
		Policy:      planPolicy{DurationMinutes: policy.DurationMinutes, BreakMinutes: policy.BreakMinutes},
		Ranges:      toPlanRanges(ranges, loc),
		Annotations: toPlanConflicts(engine.Annotate(ranges, external)),
		Pending:     make([]planSlot, 0),
	}
	for _, slot := range scheduler.PendingSlots(ranges) {
		out.Pending = append(out.Pending, toPlanSlot(slot, "", loc))
	}

	if strings.TrimSpace(opts.CopyTo) != "" {
		target, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(opts.CopyTo), loc)
		if err != nil {
			return planOutput{}, fmt.Errorf("copy-to %q must use the YYYY-MM-DD format", opts.CopyTo)
		}
		out.Copy = &planCopyOutput{
			Date:   target.Format(time.DateOnly),
			Ranges: toPlanRanges(engine.Transpose(ranges, target), loc),
		}
	}
	return out, nil
}

func parseClockPtr(engine *scheduler.Engine, value string, day time.Time) *time.Time {
	ts, ok := engine.ParseClock(value, day)
	if !ok {
		return nil
	}
	return &ts
}

func toPlanRanges(ranges []scheduler.Range, loc *time.Location) []planRange {
	out := make([]planRange, 0, len(ranges))
	for _, r := range ranges {
		pr := planRange{ID: r.ID, Kind: string(r.Kind), Slots: make([]planSlot, 0, len(r.Slots))}
		if r.StartTime != nil {
			pr.Start = scheduler.FormatClock(*r.StartTime, loc)
		}
		if r.EndTime != nil {
			pr.End = scheduler.FormatClock(*r.EndTime, loc)
		}
		for idx, slot := range r.Slots {
			pr.Slots = append(pr.Slots, toPlanSlot(slot, scheduler.SlotKey{RangeID: r.ID, Index: idx}.String(), loc))
		}
		out = append(out, pr)
	}
	return out
}

func toPlanSlot(slot scheduler.Slot, key string, loc *time.Location) planSlot {
	return planSlot{
		Key:        key,
		ID:         slot.ID,
		Time:       scheduler.FormatRange(slot.Start, slot.End, loc),
		Start:      slot.Start.Format(time.RFC3339),
		End:        slot.End.Format(time.RFC3339),
		Location:   slot.Location,
		StreamLink: slot.StreamLink,
	}
}

func toPlanConflicts(annotations map[scheduler.SlotKey]scheduler.Annotation) []planConflict {
	keys := make([]scheduler.SlotKey, 0, len(annotations))
	for key := range annotations {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RangeID == keys[j].RangeID {
			return keys[i].Index < keys[j].Index
		}
		return keys[i].RangeID < keys[j].RangeID
	})

	out := make([]planConflict, 0, len(keys))
	for _, key := range keys {
		annotation := annotations[key]
		out = append(out, planConflict{
			SlotKey:     key.String(),
			Kind:        string(annotation.Kind),
			DisplayTime: annotation.DisplayTime,
		})
	}
	return out
}

func writePlan(w io.Writer, out planOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
