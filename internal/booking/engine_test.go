package booking_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"sport_sessions/internal/booking"
	"sport_sessions/internal/models"
	"sport_sessions/internal/store"
	"sport_sessions/internal/store/storetest"
)

var base = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *store.Store
	engine *booking.Engine
	now    time.Time
	sport  *models.Sport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: storetest.Open(t), now: base}
	f.engine = booking.NewEngine(f.store, booking.WithClock(func() time.Time { return f.now }))
	f.sport = storetest.Sport(t, f.store, "Tennis")
	return f
}

func (f *fixture) player(t *testing.T, name string) booking.Actor {
	t.Helper()
	u := storetest.User(t, f.store, name)
	return booking.Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) create(t *testing.T, actor booking.Actor, at time.Time, needed int) *booking.SessionView {
	t.Helper()
	view, err := f.engine.CreateSession(context.Background(), actor, booking.CreateInput{
		SportID:       f.sport.ID,
		Venue:         "Central Park",
		ScheduledAt:   at,
		PlayersNeeded: needed,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return view
}

func wantKind(t *testing.T, err error, kind booking.Kind) {
	t.Helper()
	if got := booking.KindOf(err); got != kind {
		t.Fatalf("kind = %q (err %v), want %q", got, err, kind)
	}
}

func TestCreateSessionCountsCreator(t *testing.T) {
	f := newFixture(t)
	alice := f.player(t, "alice")

	view := f.create(t, alice, base.Add(24*time.Hour), 4)
	if view.Status != models.StatusActive {
		t.Fatalf("status = %q", view.Status)
	}
	if len(view.Participants) != 1 || view.Participants[0].ID != alice.UserID {
		t.Fatalf("participants = %+v", view.Participants)
	}
	if view.SpotsLeft != 3 {
		t.Fatalf("spots left = %d, want 3", view.SpotsLeft)
	}
	if view.SportName != "Tennis" || view.CreatorName != "alice" {
		t.Fatalf("names = %q/%q", view.SportName, view.CreatorName)
	}
	if view.CancellationReason != nil {
		t.Fatalf("active session has reason %q", *view.CancellationReason)
	}
}

func TestCreateSessionStoresLocation(t *testing.T) {
	f := newFixture(t)
	alice := f.player(t, "alice")

	view, err := f.engine.CreateSession(context.Background(), alice, booking.CreateInput{
		SportID:       f.sport.ID,
		Venue:         "Riverside",
		VenueLocation: json.RawMessage(`{"type":"Point","coordinates":[36.8219,-1.2921]}`),
		ScheduledAt:   base.Add(time.Hour),
		PlayersNeeded: 2,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	var point struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(view.VenueLocation, &point); err != nil {
		t.Fatalf("location %s: %v", view.VenueLocation, err)
	}
	if point.Type != "Point" || len(point.Coordinates) != 2 || point.Coordinates[0] != 36.8219 {
		t.Fatalf("location = %+v", point)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.player(t, "alice")
	good := booking.CreateInput{
		SportID:       f.sport.ID,
		Venue:         "Court",
		ScheduledAt:   base.Add(time.Hour),
		PlayersNeeded: 2,
	}

	cases := []struct {
		name  string
		actor booking.Actor
		edit  func(*booking.CreateInput)
		kind  booking.Kind
	}{
		{"anonymous", booking.Actor{}, func(*booking.CreateInput) {}, booking.KindValidation},
		{"zero capacity", alice, func(in *booking.CreateInput) { in.PlayersNeeded = 0 }, booking.KindValidation},
		{"negative capacity", alice, func(in *booking.CreateInput) { in.PlayersNeeded = -3 }, booking.KindValidation},
		{"blank venue", alice, func(in *booking.CreateInput) { in.Venue = "   " }, booking.KindValidation},
		{"past time", alice, func(in *booking.CreateInput) { in.ScheduledAt = base.Add(-time.Minute) }, booking.KindValidation},
		{"now", alice, func(in *booking.CreateInput) { in.ScheduledAt = base }, booking.KindValidation},
		{"bad location", alice, func(in *booking.CreateInput) {
			in.VenueLocation = json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)
		}, booking.KindValidation},
		{"unknown sport", alice, func(in *booking.CreateInput) { in.SportID = 999 }, booking.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := good
			tc.edit(&in)
			_, err := f.engine.CreateSession(context.Background(), tc.actor, in)
			wantKind(t, err, tc.kind)
		})
	}

	views, err := f.engine.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("rejected creates left %d sessions behind", len(views))
	}
}

func TestJoinFillsCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.player(t, "alice"), f.player(t, "bob"), f.player(t, "carol")

	s := f.create(t, alice, base.Add(24*time.Hour), 2)

	res, err := f.engine.JoinSession(ctx, bob, s.ID)
	if err != nil {
		t.Fatalf("bob join: %v", err)
	}
	if res.Participants != 2 || res.PlayersNeeded != 2 {
		t.Fatalf("join result = %+v", res)
	}

	_, err = f.engine.JoinSession(ctx, carol, s.ID)
	wantKind(t, err, booking.KindSessionFull)

	view, err := f.engine.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(view.Participants) != 2 || view.SpotsLeft != 0 {
		t.Fatalf("roster = %+v spots = %d", view.Participants, view.SpotsLeft)
	}
}

func TestJoinTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.player(t, "alice"), f.player(t, "bob")
	s := f.create(t, alice, base.Add(time.Hour), 5)

	_, err := f.engine.JoinSession(ctx, alice, s.ID)
	wantKind(t, err, booking.KindAlreadyJoined)

	if _, err := f.engine.JoinSession(ctx, bob, s.ID); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	_, err = f.engine.JoinSession(ctx, bob, s.ID)
	wantKind(t, err, booking.KindAlreadyJoined)

	view, err := f.engine.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(view.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(view.Participants))
	}
}

func TestJoinTimeConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.player(t, "alice"), f.player(t, "bob")
	at := base.Add(48 * time.Hour)

	s1 := f.create(t, alice, at, 4)
	s2 := f.create(t, bob, at, 4)
	s3 := f.create(t, bob, at.Add(time.Second), 4)

	_, err := f.engine.JoinSession(ctx, alice, s2.ID)
	wantKind(t, err, booking.KindTimeConflict)
	_, err = f.engine.JoinSession(ctx, bob, s1.ID)
	wantKind(t, err, booking.KindTimeConflict)

	if _, err := f.engine.JoinSession(ctx, alice, s3.ID); err != nil {
		t.Fatalf("different instant should not conflict: %v", err)
	}

	if _, err := f.engine.CancelSession(ctx, alice, s1.ID, "court closed"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.engine.JoinSession(ctx, alice, s2.ID); err != nil {
		t.Fatalf("cancelled session should not conflict: %v", err)
	}
}

func TestJoinUnavailableSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.player(t, "alice"), f.player(t, "bob")

	_, err := f.engine.JoinSession(ctx, bob, 12345)
	wantKind(t, err, booking.KindNotAvailable)

	s := f.create(t, alice, base.Add(time.Hour), 4)
	f.now = base.Add(time.Hour)
	_, err = f.engine.JoinSession(ctx, bob, s.ID)
	wantKind(t, err, booking.KindNotAvailable)

	_, err = f.engine.JoinSession(ctx, booking.Actor{}, s.ID)
	wantKind(t, err, booking.KindValidation)
}

func TestCancelSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.player(t, "alice"), f.player(t, "bob")
	s := f.create(t, alice, base.Add(24*time.Hour), 4)
	if _, err := f.engine.JoinSession(ctx, bob, s.ID); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	_, err := f.engine.CancelSession(ctx, alice, s.ID, "  ")
	wantKind(t, err, booking.KindValidation)
	_, err = f.engine.CancelSession(ctx, bob, s.ID, "rain")
	wantKind(t, err, booking.KindForbidden)
	_, err = f.engine.CancelSession(ctx, alice, 999, "rain")
	wantKind(t, err, booking.KindNotFound)

	cancelled, err := f.engine.CancelSession(ctx, alice, s.ID, " rain ")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.IsCancelled() || cancelled.CancellationReason == nil || *cancelled.CancellationReason != "rain" {
		t.Fatalf("cancelled = %+v", cancelled)
	}

	_, err = f.engine.CancelSession(ctx, alice, s.ID, "again")
	wantKind(t, err, booking.KindAlreadyCancelled)

	carol := f.player(t, "carol")
	_, err = f.engine.JoinSession(ctx, carol, s.ID)
	wantKind(t, err, booking.KindNotAvailable)

	view, err := f.engine.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if view.Status != models.StatusCancelled || view.CancellationReason == nil || *view.CancellationReason != "rain" {
		t.Fatalf("view = %+v", view)
	}
	if len(view.Participants) != 2 {
		t.Fatalf("participations must survive cancellation, got %d", len(view.Participants))
	}
}

func TestConcurrentJoinsNeverOverAdmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "alice")
	s := f.create(t, alice, base.Add(24*time.Hour), 3)

	const n = 12
	players := make([]booking.Actor, n)
	for i := range players {
		players[i] = f.player(t, fmt.Sprintf("p%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		kinds   = map[booking.Kind]int{}
	)
	for _, p := range players {
		wg.Add(1)
		go func(actor booking.Actor) {
			defer wg.Done()
			_, err := f.engine.JoinSession(ctx, actor, s.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			kinds[booking.KindOf(err)]++
		}(p)
	}
	wg.Wait()

	if success != 2 {
		t.Fatalf("successful joins = %d, want 2 (rejections %v)", success, kinds)
	}
	if kinds[booking.KindSessionFull] != n-2 {
		t.Fatalf("rejections = %v, want %d session_full", kinds, n-2)
	}

	view, err := f.engine.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(view.Participants) != 3 {
		t.Fatalf("participants = %d, want 3", len(view.Participants))
	}
}

func TestConcurrentDuplicateJoins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.player(t, "alice"), f.player(t, "bob")
	s := f.create(t, alice, base.Add(24*time.Hour), 10)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.JoinSession(ctx, bob, s.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		wantKind(t, err, booking.KindAlreadyJoined)
	}
	if ok != 1 {
		t.Fatalf("successful joins = %d, want 1", ok)
	}
}
