package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medley-audio/medley/internal/adapter"
	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/session"
)

// stubAdapter serves canned records, or misbehaves on demand.
type stubAdapter struct {
	name    string
	records []domain.Record
	err     error
	panics  bool
}

func (s *stubAdapter) Name() string                           { return s.name }
func (s *stubAdapter) Authenticate(ctx context.Context) error { return nil }

func (s *stubAdapter) serve() ([]domain.Record, error) {
	if s.panics {
		panic("adapter exploded")
	}
	return s.records, s.err
}

func (s *stubAdapter) Tracks(ctx context.Context) ([]domain.Record, error) { return s.serve() }
func (s *stubAdapter) Albums(ctx context.Context, t string) ([]domain.Record, error) {
	return s.serve()
}
func (s *stubAdapter) Playlists(ctx context.Context) ([]domain.Record, error) { return s.serve() }
func (s *stubAdapter) Artists(ctx context.Context, t string) ([]domain.Record, error) {
	return s.serve()
}
func (s *stubAdapter) Search(ctx context.Context, q string) ([]domain.Record, error) {
	return s.serve()
}
func (s *stubAdapter) Recommendations(ctx context.Context) ([]domain.Record, error) {
	return s.serve()
}
func (s *stubAdapter) Radio(ctx context.Context, seed string) ([]domain.Record, error) {
	return s.serve()
}
func (s *stubAdapter) Profiles(ctx context.Context) ([]domain.Record, error) { return s.serve() }

func handleFor(stub *stubAdapter) *adapter.Handle {
	return &adapter.Handle{Service: stub.name, Adapter: stub}
}

func track(id string) domain.Record {
	return domain.Record{ID: id, Kind: domain.KindTrack, Service: "stub", Title: id}
}

func testEngine() *Engine {
	return New(logger.New("error", false), "")
}

func TestFanOutMergesAllAdapters(t *testing.T) {
	e := testEngine()
	handles := []*adapter.Handle{
		handleFor(&stubAdapter{name: "one", records: []domain.Record{track("one:a"), track("one:b")}}),
		handleFor(&stubAdapter{name: "two", records: []domain.Record{track("two:a")}}),
	}

	got := e.fanOut(context.Background(), handles, CapTracks, "")
	if len(got) != 3 {
		t.Fatalf("merged %d records, want 3", len(got))
	}
	// Per-adapter order preserved inside each segment.
	if got[0].ID != "one:a" || got[1].ID != "one:b" || got[2].ID != "two:a" {
		t.Errorf("order = %v", []string{got[0].ID, got[1].ID, got[2].ID})
	}
}

func TestFanOutIsolatesFailures(t *testing.T) {
	e := testEngine()
	handles := []*adapter.Handle{
		handleFor(&stubAdapter{name: "good", records: []domain.Record{track("good:a"), track("good:b"), track("good:c")}}),
		handleFor(&stubAdapter{name: "broken", err: domain.Upstream("broken", errors.New("rate limited"))}),
		handleFor(&stubAdapter{name: "hostile", panics: true}),
	}

	got := e.fanOut(context.Background(), handles, CapSearch, "nina")
	if len(got) != 3 {
		t.Fatalf("merged %d records, want 3 from the healthy adapter", len(got))
	}
	for _, r := range got {
		if r.Service != "stub" {
			t.Errorf("unexpected record %+v", r)
		}
	}
}

func TestFanOutDispatchesArguments(t *testing.T) {
	e := testEngine()

	// An unknown capability is logged and yields nothing instead of
	// panicking the fan-out.
	handles := []*adapter.Handle{
		handleFor(&stubAdapter{name: "one", records: []domain.Record{track("one:a")}}),
	}
	got := e.fanOut(context.Background(), handles, Capability("jukebox"), "")
	if len(got) != 0 {
		t.Errorf("unknown capability returned %d records", len(got))
	}
}

func TestAggregateEmptySessionWithFailingDefault(t *testing.T) {
	// With no ambient cookie the implicit default connect fails; the
	// aggregate call must still return an empty list, not an error.
	e := testEngine()
	reg := session.NewRegistry(time.Hour, logger.New("error", false))
	sess := reg.Get("lonely")

	got := e.Aggregate(context.Background(), sess, CapTracks, "")
	if got == nil {
		t.Fatal("Aggregate returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Aggregate returned %d records, want 0", len(got))
	}
	if len(sess.Services()) != 0 {
		t.Errorf("failed default connect registered %v", sess.Services())
	}
}

func TestRadioRequiresWebMusic(t *testing.T) {
	e := testEngine()
	reg := session.NewRegistry(time.Hour, logger.New("error", false))
	sess := reg.Get("radioless")

	_, err := e.Radio(context.Background(), sess, "seed-1")
	if !errors.Is(err, domain.ErrAdapterNotConnected) {
		t.Fatalf("expected ErrAdapterNotConnected, got %v", err)
	}
}
