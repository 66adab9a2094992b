package gcal_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/shiftplan/internal/export"
	"github.com/Tiliavir/shiftplan/internal/gcal"
	"github.com/Tiliavir/shiftplan/internal/model"
)

// fakeCalendar records calls made by Sync.
type fakeCalendar struct {
	events     []gcal.Event
	from, to   time.Time
	deleted    []string
	inserted   []gcal.Event
	failDelete map[string]bool
	failInsert map[string]bool
	listErr    error
}

func (f *fakeCalendar) ListEvents(_ context.Context, _ string, from, to time.Time) ([]gcal.Event, error) {
	f.from, f.to = from, to
	return f.events, f.listErr
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ string, id string) error {
	if f.failDelete[id] {
		return errors.New("boom")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, _ string, ev gcal.Event) (gcal.Event, error) {
	if f.failInsert[ev.Summary] {
		return gcal.Event{}, errors.New("boom")
	}
	f.inserted = append(f.inserted, ev)
	ev.ID = "new"
	return ev, nil
}

var entries = []model.Entry{
	{Date: "2024-03-05", Start: "07:35", End: "15:50", Code: "F", Validated: true},
	{Date: "2024-03-10", Start: "19:50", End: "07:35", Code: "B38", Validated: true},
	{Date: "2024-03-12", AllDay: true, Code: "U", Validated: true},
}

func TestEventForTimed(t *testing.T) {
	ev, err := gcal.EventFor(entries[0], "Europe/Berlin", map[string]string{"F": "#22c55e"})
	if err != nil {
		t.Fatalf("EventFor: %v", err)
	}
	if ev.Summary != "F 07:35–15:50" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Start.DateTime != "2024-03-05T07:35:00" || ev.End.DateTime != "2024-03-05T15:50:00" {
		t.Errorf("times = %+v / %+v", ev.Start, ev.End)
	}
	if ev.Start.TimeZone != "Europe/Berlin" {
		t.Errorf("TimeZone = %q", ev.Start.TimeZone)
	}
	if ev.ColorID != "10" {
		t.Errorf("ColorID = %q, want 10", ev.ColorID)
	}
	want := export.Description + "\nOriginal: F, 07:35, 15:50"
	if ev.Description != want {
		t.Errorf("Description = %q, want %q", ev.Description, want)
	}
}

func TestEventForOvernight(t *testing.T) {
	ev, err := gcal.EventFor(entries[1], "Europe/Berlin", nil)
	if err != nil {
		t.Fatalf("EventFor: %v", err)
	}
	if ev.End.DateTime != "2024-03-11T07:35:00" {
		t.Errorf("End = %q, want next day", ev.End.DateTime)
	}
	if ev.ColorID != "" {
		t.Errorf("ColorID = %q, want none", ev.ColorID)
	}
}

func TestEventForAllDay(t *testing.T) {
	ev, err := gcal.EventFor(entries[2], "Europe/Berlin", nil)
	if err != nil {
		t.Fatalf("EventFor: %v", err)
	}
	if ev.Summary != "U" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if ev.Start.Date != "2024-03-12" || ev.End.Date != "2024-03-13" {
		t.Errorf("dates = %+v / %+v", ev.Start, ev.End)
	}
	if ev.Start.DateTime != "" || ev.Start.TimeZone != "" {
		t.Errorf("all-day event carries a time: %+v", ev.Start)
	}
	if !strings.HasSuffix(ev.Description, "\nOriginal: U") {
		t.Errorf("Description = %q", ev.Description)
	}
}

func TestEventForInvalidTime(t *testing.T) {
	_, err := gcal.EventFor(model.Entry{Date: "2024-03-05", Start: "7:35", End: "15:50", Code: "F"}, "UTC", nil)
	if err == nil {
		t.Fatal("expected error for malformed start time")
	}
}

func TestSyncClearsAndCreates(t *testing.T) {
	fake := &fakeCalendar{events: []gcal.Event{
		{ID: "old-1", Summary: "F 07:35–15:50", Description: export.Description},
		{ID: "old-2", Summary: "Zahnarzt"},
	}}
	var out bytes.Buffer

	result, err := gcal.Sync(context.Background(), fake, entries, gcal.SyncOptions{
		CalendarID: "primary",
		Timezone:   "Europe/Berlin",
		Out:        &out,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Deleted != 2 || result.Created != 3 || result.Errors != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(fake.inserted) != 3 {
		t.Fatalf("inserted = %d, want 3", len(fake.inserted))
	}

	berlin, _ := time.LoadLocation("Europe/Berlin")
	wantFrom := time.Date(2024, 3, 5, 0, 0, 0, 0, berlin)
	wantTo := time.Date(2024, 3, 12, 23, 59, 59, 0, berlin)
	if !fake.from.Equal(wantFrom) || !fake.to.Equal(wantTo) {
		t.Errorf("range = %v .. %v, want %v .. %v", fake.from, fake.to, wantFrom, wantTo)
	}
	if !strings.Contains(out.String(), "✓ Created:  2024-03-12 U") {
		t.Errorf("output missing created line:\n%s", out.String())
	}
}

func TestSyncOnlyImported(t *testing.T) {
	fake := &fakeCalendar{events: []gcal.Event{
		{ID: "old-1", Description: export.Description + "\nOriginal: F"},
		{ID: "old-2", Summary: "Zahnarzt"},
	}}
	result, err := gcal.Sync(context.Background(), fake, entries, gcal.SyncOptions{OnlyImported: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Deleted != 1 || len(fake.deleted) != 1 || fake.deleted[0] != "old-1" {
		t.Errorf("deleted = %v, result = %+v", fake.deleted, result)
	}
}

func TestSyncDryRun(t *testing.T) {
	fake := &fakeCalendar{events: []gcal.Event{{ID: "old-1", Summary: "x"}}}
	var out bytes.Buffer

	result, err := gcal.Sync(context.Background(), fake, entries, gcal.SyncOptions{DryRun: true, Out: &out})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Deleted != 1 || result.Created != 3 {
		t.Errorf("result = %+v", result)
	}
	if len(fake.deleted) != 0 || len(fake.inserted) != 0 {
		t.Errorf("dry run modified the calendar: deleted=%v inserted=%v", fake.deleted, fake.inserted)
	}
	if !strings.Contains(out.String(), "Would create: 2024-03-05 F 07:35–15:50") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestSyncCountsFailures(t *testing.T) {
	fake := &fakeCalendar{
		events:     []gcal.Event{{ID: "old-1"}, {ID: "old-2"}},
		failDelete: map[string]bool{"old-1": true},
		failInsert: map[string]bool{"U": true},
	}
	result, err := gcal.Sync(context.Background(), fake, entries, gcal.SyncOptions{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Deleted != 1 || result.Created != 2 || result.Errors != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestSyncListError(t *testing.T) {
	fake := &fakeCalendar{listErr: errors.New("unauthorized")}
	if _, err := gcal.Sync(context.Background(), fake, entries, gcal.SyncOptions{}); err == nil {
		t.Fatal("expected list error")
	}
	if len(fake.inserted) != 0 {
		t.Error("events inserted after failed listing")
	}
}

func TestSyncNoEntries(t *testing.T) {
	fake := &fakeCalendar{}
	result, err := gcal.Sync(context.Background(), fake, nil, gcal.SyncOptions{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result != (gcal.SyncResult{}) {
		t.Errorf("result = %+v", result)
	}
	if !fake.from.IsZero() {
		t.Error("calendar listed without entries")
	}
}

func TestColorID(t *testing.T) {
	tests := []struct {
		hex  string
		want string
	}{
		{"#5484ED", "9"},  // exact palette
		{"#ef4444", "11"}, // red family
		{"#eab308", "5"},  // yellow family
		{"#3b82f6", "9"},  // blue family
		{"#a78bfa", "3"},  // purple family
		{"#fe8a7d", "4"},  // nearest: flamingo
		{"dc2127", "11"},  // without hash
		{"red", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := gcal.ColorID(tt.hex); got != tt.want {
			t.Errorf("ColorID(%q) = %q, want %q", tt.hex, got, tt.want)
		}
	}
}
