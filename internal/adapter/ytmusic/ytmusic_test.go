package ytmusic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
)

const homeFeedFixture = `{
  "contents": {"singleColumnBrowseResultsRenderer": {"tabs": [{"tabRenderer": {"content": {"sectionListRenderer": {"contents": [
    {"musicShelfRenderer": {"title": {"runs": [{"text": "Quick picks"}]}, "contents": [
      {"musicResponsiveListItemRenderer": {
        "playlistItemData": {"videoId": "vid1"},
        "thumbnail": {"musicThumbnailRenderer": {"thumbnail": {"thumbnails": [
          {"url": "https://img.example/1-small.jpg", "width": 60, "height": 60},
          {"url": "https://img.example/1-large.jpg", "width": 544, "height": 544}
        ]}}},
        "flexColumns": [
          {"musicResponsiveListItemFlexColumnRenderer": {"text": {"runs": [{"text": "Song One"}]}}},
          {"musicResponsiveListItemFlexColumnRenderer": {"text": {"runs": [{"text": "Artist One"}]}}},
          {"musicResponsiveListItemFlexColumnRenderer": {"text": {"runs": [{"text": "Album One"}]}}}
        ]}},
      {"musicResponsiveListItemRenderer": {
        "playlistItemData": {"videoId": "vid2"},
        "flexColumns": [
          {"musicResponsiveListItemFlexColumnRenderer": {"text": {"runs": [{"text": "Song Two"}]}}},
          {"musicResponsiveListItemFlexColumnRenderer": {"text": {"runs": [{"text": "Artist Two"}]}}}
        ]}}
    ]}},
    {"musicCarouselShelfRenderer": {
      "header": {"musicCarouselShelfBasicHeaderRenderer": {"title": {"runs": [{"text": "New releases"}]}}},
      "contents": [
        {"musicTwoRowItemRenderer": {
          "title": {"runs": [{"text": "Album X"}]},
          "subtitle": {"runs": [{"text": "Album"}, {"text": " • "}, {"text": "Artist X"}]},
          "navigationEndpoint": {"browseEndpoint": {"browseId": "MPREb_abc",
            "browseEndpointContextSupportedConfigs": {"browseEndpointContextMusicConfig": {"pageType": "MUSIC_PAGE_TYPE_ALBUM"}}}}}},
        {"musicTwoRowItemRenderer": {
          "title": {"runs": [{"text": "Artist Y"}]},
          "navigationEndpoint": {"browseEndpoint": {"browseId": "UCyyy"}}}},
        {"musicTwoRowItemRenderer": {
          "title": {"runs": [{"text": "Mix: Chill"}]},
          "navigationEndpoint": {"browseEndpoint": {"browseId": "VLPLzzz",
            "browseEndpointContextSupportedConfigs": {"browseEndpointContextMusicConfig": {"pageType": "MUSIC_PAGE_TYPE_PLAYLIST"}}}}}}
      ]}}
  ]}}}}]}}
}`

const mixFixture = `{
  "contents": {"singleColumnMusicWatchNextResultsRenderer": {"tabbedRenderer": {"watchNextTabbedResultsRenderer": {"tabs": [
    {"tabRenderer": {"content": {"musicQueueRenderer": {"content": {"playlistPanelRenderer": {"contents": [
      {"playlistPanelVideoRenderer": {
        "videoId": "seed1",
        "title": {"runs": [{"text": "Seed Song"}]},
        "shortBylineText": {"runs": [{"text": "Seed Artist"}]},
        "lengthText": {"runs": [{"text": "3:45"}]},
        "thumbnail": {"thumbnails": [{"url": "https://img.example/seed.jpg", "width": 60, "height": 60}]}}},
      {"playlistPanelVideoRenderer": {
        "videoId": "mix1",
        "title": {"runs": [{"text": "Mix Song"}]},
        "shortBylineText": {"runs": [{"text": "Mix Artist"}]},
        "lengthText": {"runs": [{"text": "4:05"}]}}}
    ]}}}}}}
  ]}}}}
}`

func testAdapter(t *testing.T, cookie string) *Adapter {
	t.Helper()
	return New(cookie, logger.New("error", false))
}

func fixtureServer(t *testing.T, path, fixture string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fixture))
	}))
}

func TestAuthenticate(t *testing.T) {
	a := testAdapter(t, "")
	if err := a.Authenticate(context.Background()); !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("Authenticate() error = %v, want ErrAuthentication", err)
	}

	a = testAdapter(t, "__Secure-3PAPISID=tok; VISITOR_INFO1_LIVE=abc")
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("second Authenticate() error = %v", err)
	}
}

func TestFeedSectionsRequireAuth(t *testing.T) {
	a := testAdapter(t, "")
	if _, err := a.feedSections(context.Background()); !errors.Is(err, domain.ErrAdapterNotConnected) {
		t.Fatalf("feedSections() error = %v, want ErrAdapterNotConnected", err)
	}
}

func TestCapabilitiesBeforeAuthReturnEmpty(t *testing.T) {
	a := testAdapter(t, "")
	ctx := context.Background()

	// Feed-only capabilities degrade to empty without a cookie rather
	// than surfacing the auth gate to the aggregation engine.
	calls := map[string]func() ([]domain.Record, error){
		"Playlists":       func() ([]domain.Record, error) { return a.Playlists(ctx) },
		"Recommendations": func() ([]domain.Record, error) { return a.Recommendations(ctx) },
		"Profiles":        func() ([]domain.Record, error) { return a.Profiles(ctx) },
	}
	for name, call := range calls {
		recs, err := call()
		if err != nil {
			t.Errorf("%s() error = %v, want nil", name, err)
		}
		if len(recs) != 0 {
			t.Errorf("%s() returned %d records, want 0", name, len(recs))
		}
	}
}

func TestSectionExtraction(t *testing.T) {
	var resp browseResponse
	if err := json.Unmarshal([]byte(homeFeedFixture), &resp); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	sections := resp.sections()
	if len(sections) != 2 {
		t.Fatalf("sections() returned %d sections, want 2", len(sections))
	}

	quick := sections[0]
	if quick.Title != "Quick picks" {
		t.Errorf("section title = %q, want %q", quick.Title, "Quick picks")
	}
	if len(quick.Records) != 2 {
		t.Fatalf("quick picks has %d records, want 2", len(quick.Records))
	}
	first := quick.Records[0]
	if first.ID != "ytmusic:vid1" || first.Kind != domain.KindTrack {
		t.Errorf("record = %+v, want track ytmusic:vid1", first)
	}
	if first.Artist != "Artist One" || first.Album != "Album One" {
		t.Errorf("record columns = artist %q album %q", first.Artist, first.Album)
	}
	if first.Artwork != "https://img.example/1-large.jpg" {
		t.Errorf("artwork = %q, want largest thumbnail", first.Artwork)
	}

	releases := sections[1]
	if len(releases.Records) != 3 {
		t.Fatalf("new releases has %d records, want 3", len(releases.Records))
	}
	kinds := map[domain.Kind]domain.Record{}
	for _, r := range releases.Records {
		kinds[r.Kind] = r
	}
	if alb, ok := kinds[domain.KindAlbum]; !ok || alb.ID != "ytmusic:MPREb_abc" || alb.Artist != "Artist X" {
		t.Errorf("album record = %+v", alb)
	}
	if art, ok := kinds[domain.KindArtist]; !ok || art.ID != "ytmusic:UCyyy" || art.Title != "Artist Y" {
		t.Errorf("artist record = %+v", art)
	}
	if pl, ok := kinds[domain.KindPlaylist]; !ok || pl.ID != "ytmusic:VLPLzzz" {
		t.Errorf("playlist record = %+v", pl)
	}
}

func TestTracksSelectsKeywordSections(t *testing.T) {
	srv := fixtureServer(t, "/browse", homeFeedFixture)
	defer srv.Close()

	a := testAdapter(t, "__Secure-3PAPISID=tok")
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	a.feed.base = srv.URL

	recs, err := a.Tracks(context.Background())
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Tracks() returned %d records, want 2", len(recs))
	}
	for _, r := range recs {
		if r.Kind != domain.KindTrack {
			t.Errorf("record %s kind = %q, want track", r.ID, r.Kind)
		}
		if r.Service != serviceName {
			t.Errorf("record %s service = %q, want %q", r.ID, r.Service, serviceName)
		}
	}
}

func TestRecommendationsSkipKeywordSections(t *testing.T) {
	srv := fixtureServer(t, "/browse", homeFeedFixture)
	defer srv.Close()

	a := testAdapter(t, "__Secure-3PAPISID=tok")
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	a.feed.base = srv.URL

	recs, err := a.Recommendations(context.Background())
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Recommendations() returned %d records, want 3", len(recs))
	}
	for _, r := range recs {
		if r.Kind == domain.KindTrack {
			t.Errorf("recommendations picked up a quick-picks track: %+v", r)
		}
	}
}

func TestRadioMapsMixQueue(t *testing.T) {
	srv := fixtureServer(t, "/next", mixFixture)
	defer srv.Close()

	a := testAdapter(t, "")
	a.feed.base = srv.URL

	recs, err := a.Radio(context.Background(), "seed1")
	if err != nil {
		t.Fatalf("Radio() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Radio() returned %d records, want 2", len(recs))
	}
	if recs[0].ID != "ytmusic:seed1" || recs[0].Duration != 225 {
		t.Errorf("first mix record = %+v", recs[0])
	}
	if recs[1].Title != "Mix Song" || recs[1].Duration != 245 {
		t.Errorf("second mix record = %+v", recs[1])
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3:45", 225},
		{"1:02:03", 3723},
		{"0:59", 59},
		{"", 0},
		{"live", 0},
	}
	for _, tt := range tests {
		if got := parseClock(tt.in); got != tt.want {
			t.Errorf("parseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDedupeByID(t *testing.T) {
	in := []domain.Record{
		{ID: "ytmusic:a"},
		{ID: "ytmusic:b"},
		{ID: "ytmusic:a"},
	}
	out := dedupeByID(in)
	if len(out) != 2 {
		t.Fatalf("dedupeByID() kept %d records, want 2", len(out))
	}
	if out[0].ID != "ytmusic:a" || out[1].ID != "ytmusic:b" {
		t.Errorf("dedupeByID() order changed: %+v", out)
	}
}

func TestMatchesTrackKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Quick picks", true},
		{"Mixed for you: rock", true},
		{"LISTEN AGAIN", true},
		{"New releases", false},
		{"Covers and remixes", false},
	}
	for _, tt := range tests {
		if got := matchesTrackKeywords(tt.title); got != tt.want {
			t.Errorf("matchesTrackKeywords(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
