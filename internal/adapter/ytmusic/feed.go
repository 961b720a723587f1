package ytmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/utils"
)

// Internal API endpoints used for the personalized home feed and the
// seed-track mix queue. Both speak the same JSON protocol as the web
// client.
const (
	innertubeBase = "https://music.youtube.com/youtubei/v1"
	originURL     = "https://music.youtube.com"

	apiClientName    = "WEB_REMIX"
	apiClientVersion = "1.20250203.01.00"

	homeBrowseID      = "FEmusic_home"
	mixPlaylistPrefix = "RDAMVM"

	upstreamTimeout = 15 * time.Second
)

// feedClient issues calls against the web client's internal JSON API,
// authenticated with the captured browser cookie.
type feedClient struct {
	base      string
	http      *http.Client
	rawCookie string
	sapisid   string
}

func newFeedClient(rawCookie, sapisid string) *feedClient {
	return &feedClient{
		base:      innertubeBase,
		http:      &http.Client{Timeout: upstreamTimeout},
		rawCookie: rawCookie,
		sapisid:   sapisid,
	}
}

type innertubeContext struct {
	Client struct {
		ClientName    string `json:"clientName"`
		ClientVersion string `json:"clientVersion"`
		HL            string `json:"hl"`
	} `json:"client"`
}

func defaultContext() innertubeContext {
	var ic innertubeContext
	ic.Client.ClientName = apiClientName
	ic.Client.ClientVersion = apiClientVersion
	ic.Client.HL = "en"
	return ic
}

func (c *feedClient) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	url := fmt.Sprintf("%s/%s?prettyPrint=false", c.base, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", originURL)
	req.Header.Set("X-Origin", originURL)
	if c.rawCookie != "" {
		req.Header.Set("Cookie", c.rawCookie)
	}
	if c.sapisid != "" {
		req.Header.Set("Authorization", sapisidHash(c.sapisid, originURL, time.Now()))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s call: %w", endpoint, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s call: unexpected status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// feedSection is one titled shelf of the home feed with its entries
// already normalized.
type feedSection struct {
	Title   string
	Records []domain.Record
}

func (c *feedClient) homeSections(ctx context.Context) ([]feedSection, error) {
	payload := struct {
		Context  innertubeContext `json:"context"`
		BrowseID string           `json:"browseId"`
	}{defaultContext(), homeBrowseID}

	var resp browseResponse
	if err := c.post(ctx, "browse", payload, &resp); err != nil {
		return nil, err
	}
	return resp.sections(), nil
}

// mix fetches the seed-track radio queue (the RDAMVM<id> mix playlist
// the web client starts from a song's radio action).
func (c *feedClient) mix(ctx context.Context, videoID string) ([]domain.Record, error) {
	payload := struct {
		Context    innertubeContext `json:"context"`
		VideoID    string           `json:"videoId"`
		PlaylistID string           `json:"playlistId"`
	}{defaultContext(), videoID, mixPlaylistPrefix + videoID}

	var resp nextResponse
	if err := c.post(ctx, "next", payload, &resp); err != nil {
		return nil, err
	}
	return resp.tracks(), nil
}

// ─────────────────────────────
// Response schema (minimal)
//
// Only the fields the mappers below touch are declared; everything
// else in the payloads is ignored.
// ─────────────────────────────

type browseResponse struct {
	Contents struct {
		SingleColumnBrowseResultsRenderer struct {
			Tabs []struct {
				TabRenderer struct {
					Content struct {
						SectionListRenderer struct {
							Contents []sectionContent `json:"contents"`
						} `json:"sectionListRenderer"`
					} `json:"content"`
				} `json:"tabRenderer"`
			} `json:"tabs"`
		} `json:"singleColumnBrowseResultsRenderer"`
	} `json:"contents"`
}

type sectionContent struct {
	MusicCarouselShelfRenderer *carouselShelf `json:"musicCarouselShelfRenderer"`
	MusicShelfRenderer         *musicShelf    `json:"musicShelfRenderer"`
}

type carouselShelf struct {
	Header struct {
		MusicCarouselShelfBasicHeaderRenderer struct {
			Title textRuns `json:"title"`
		} `json:"musicCarouselShelfBasicHeaderRenderer"`
	} `json:"header"`
	Contents []shelfItem `json:"contents"`
}

type musicShelf struct {
	Title    textRuns    `json:"title"`
	Contents []shelfItem `json:"contents"`
}

type shelfItem struct {
	MusicTwoRowItemRenderer         *twoRowItem         `json:"musicTwoRowItemRenderer"`
	MusicResponsiveListItemRenderer *responsiveListItem `json:"musicResponsiveListItemRenderer"`
}

type twoRowItem struct {
	Title              textRuns           `json:"title"`
	Subtitle           textRuns           `json:"subtitle"`
	NavigationEndpoint navigationEndpoint `json:"navigationEndpoint"`
	ThumbnailRenderer  struct {
		MusicThumbnailRenderer musicThumbnail `json:"musicThumbnailRenderer"`
	} `json:"thumbnailRenderer"`
}

type flexColumn struct {
	MusicResponsiveListItemFlexColumnRenderer struct {
		Text textRuns `json:"text"`
	} `json:"musicResponsiveListItemFlexColumnRenderer"`
}

type responsiveListItem struct {
	FlexColumns []flexColumn `json:"flexColumns"`
	Thumbnail   struct {
		MusicThumbnailRenderer musicThumbnail `json:"musicThumbnailRenderer"`
	} `json:"thumbnail"`
	PlaylistItemData *struct {
		VideoID string `json:"videoId"`
	} `json:"playlistItemData"`
}

type navigationEndpoint struct {
	WatchEndpoint *struct {
		VideoID    string `json:"videoId"`
		PlaylistID string `json:"playlistId"`
	} `json:"watchEndpoint"`
	BrowseEndpoint *browseEndpoint `json:"browseEndpoint"`
}

type browseEndpoint struct {
	BrowseID                              string `json:"browseId"`
	BrowseEndpointContextSupportedConfigs *struct {
		BrowseEndpointContextMusicConfig struct {
			PageType string `json:"pageType"`
		} `json:"browseEndpointContextMusicConfig"`
	} `json:"browseEndpointContextSupportedConfigs"`
}

func (b *browseEndpoint) pageType() string {
	if b.BrowseEndpointContextSupportedConfigs != nil {
		if pt := b.BrowseEndpointContextSupportedConfigs.BrowseEndpointContextMusicConfig.PageType; pt != "" {
			return pt
		}
	}
	// Older payloads omit the config; fall back to id prefixes.
	switch {
	case strings.HasPrefix(b.BrowseID, "MPREb"):
		return "MUSIC_PAGE_TYPE_ALBUM"
	case strings.HasPrefix(b.BrowseID, "UC"):
		return "MUSIC_PAGE_TYPE_ARTIST"
	case strings.HasPrefix(b.BrowseID, "VL"), strings.HasPrefix(b.BrowseID, "PL"):
		return "MUSIC_PAGE_TYPE_PLAYLIST"
	}
	return ""
}

type textRuns struct {
	Runs []struct {
		Text               string              `json:"text"`
		NavigationEndpoint *navigationEndpoint `json:"navigationEndpoint"`
	} `json:"runs"`
}

func (t textRuns) text() string {
	if len(t.Runs) == 0 {
		return ""
	}
	return t.Runs[0].Text
}

func (t textRuns) watchVideoID() string {
	for _, r := range t.Runs {
		if r.NavigationEndpoint != nil && r.NavigationEndpoint.WatchEndpoint != nil {
			return r.NavigationEndpoint.WatchEndpoint.VideoID
		}
	}
	return ""
}

// entities returns run texts with the "•" separator runs dropped.
func (t textRuns) entities() []string {
	var out []string
	for _, r := range t.Runs {
		txt := strings.TrimSpace(r.Text)
		if txt == "" || txt == "•" {
			continue
		}
		out = append(out, txt)
	}
	return out
}

// typeLabels are subtitle entities naming the item type rather than an
// artist ("Album • Artist", "Song • Artist • 2M plays", ...).
var typeLabels = map[string]bool{
	"Album":    true,
	"Single":   true,
	"EP":       true,
	"Playlist": true,
	"Song":     true,
	"Video":    true,
	"Artist":   true,
}

// firstEntity returns the first subtitle entity that looks like an
// artist name. Best-effort: the subtitle wording is not a contract.
func (t textRuns) firstEntity() string {
	for _, e := range t.entities() {
		if typeLabels[e] {
			continue
		}
		return e
	}
	return ""
}

type thumbnailImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type musicThumbnail struct {
	Thumbnail struct {
		Thumbnails []thumbnailImage `json:"thumbnails"`
	} `json:"thumbnail"`
}

// best returns the largest variant; the API sorts them ascending.
func (m musicThumbnail) best() string {
	ths := m.Thumbnail.Thumbnails
	if len(ths) == 0 {
		return ""
	}
	return ths[len(ths)-1].URL
}

func (r *browseResponse) sections() []feedSection {
	var out []feedSection
	for _, tab := range r.Contents.SingleColumnBrowseResultsRenderer.Tabs {
		for _, sc := range tab.TabRenderer.Content.SectionListRenderer.Contents {
			var (
				title string
				items []shelfItem
			)
			switch {
			case sc.MusicCarouselShelfRenderer != nil:
				title = sc.MusicCarouselShelfRenderer.Header.MusicCarouselShelfBasicHeaderRenderer.Title.text()
				items = sc.MusicCarouselShelfRenderer.Contents
			case sc.MusicShelfRenderer != nil:
				title = sc.MusicShelfRenderer.Title.text()
				items = sc.MusicShelfRenderer.Contents
			default:
				continue
			}

			section := feedSection{Title: title}
			for _, item := range items {
				if rec, ok := item.record(); ok {
					section.Records = append(section.Records, rec)
				}
			}
			if len(section.Records) > 0 {
				out = append(out, section)
			}
		}
	}
	return out
}

func (i shelfItem) record() (domain.Record, bool) {
	switch {
	case i.MusicTwoRowItemRenderer != nil:
		return i.MusicTwoRowItemRenderer.record()
	case i.MusicResponsiveListItemRenderer != nil:
		return i.MusicResponsiveListItemRenderer.record()
	}
	return domain.Record{}, false
}

func (t *twoRowItem) record() (domain.Record, bool) {
	title := t.Title.text()
	if title == "" {
		return domain.Record{}, false
	}

	rec := domain.Record{
		Service: serviceName,
		Title:   title,
		Artist:  t.Subtitle.firstEntity(),
		Artwork: t.ThumbnailRenderer.MusicThumbnailRenderer.best(),
	}

	if we := t.NavigationEndpoint.WatchEndpoint; we != nil && we.VideoID != "" {
		rec.Kind = domain.KindTrack
		rec.ID = domain.FormatID(serviceName, we.VideoID)
		return rec, true
	}

	be := t.NavigationEndpoint.BrowseEndpoint
	if be == nil || be.BrowseID == "" {
		return domain.Record{}, false
	}
	rec.ID = domain.FormatID(serviceName, be.BrowseID)
	switch be.pageType() {
	case "MUSIC_PAGE_TYPE_ALBUM":
		rec.Kind = domain.KindAlbum
	case "MUSIC_PAGE_TYPE_ARTIST", "MUSIC_PAGE_TYPE_USER_CHANNEL":
		rec.Kind = domain.KindArtist
		rec.Artist = ""
	case "MUSIC_PAGE_TYPE_PLAYLIST":
		rec.Kind = domain.KindPlaylist
	default:
		return domain.Record{}, false
	}
	return rec, true
}

func (l *responsiveListItem) record() (domain.Record, bool) {
	if len(l.FlexColumns) == 0 {
		return domain.Record{}, false
	}
	titleRuns := l.FlexColumns[0].MusicResponsiveListItemFlexColumnRenderer.Text

	videoID := ""
	if l.PlaylistItemData != nil {
		videoID = l.PlaylistItemData.VideoID
	}
	if videoID == "" {
		videoID = titleRuns.watchVideoID()
	}

	title := titleRuns.text()
	if title == "" || videoID == "" {
		return domain.Record{}, false
	}

	rec := domain.Record{
		ID:      domain.FormatID(serviceName, videoID),
		Kind:    domain.KindTrack,
		Service: serviceName,
		Title:   title,
		Artwork: l.Thumbnail.MusicThumbnailRenderer.best(),
	}
	if len(l.FlexColumns) > 1 {
		rec.Artist = l.FlexColumns[1].MusicResponsiveListItemFlexColumnRenderer.Text.firstEntity()
	}
	if len(l.FlexColumns) > 2 {
		rec.Album = l.FlexColumns[2].MusicResponsiveListItemFlexColumnRenderer.Text.text()
	}
	return rec, true
}

type nextResponse struct {
	Contents struct {
		SingleColumnMusicWatchNextResultsRenderer struct {
			TabbedRenderer struct {
				WatchNextTabbedResultsRenderer struct {
					Tabs []struct {
						TabRenderer struct {
							Content struct {
								MusicQueueRenderer struct {
									Content struct {
										PlaylistPanelRenderer struct {
											Contents []struct {
												PlaylistPanelVideoRenderer *panelVideo `json:"playlistPanelVideoRenderer"`
											} `json:"contents"`
										} `json:"playlistPanelRenderer"`
									} `json:"content"`
								} `json:"musicQueueRenderer"`
							} `json:"content"`
						} `json:"tabRenderer"`
					} `json:"tabs"`
				} `json:"watchNextTabbedResultsRenderer"`
			} `json:"tabbedRenderer"`
		} `json:"singleColumnMusicWatchNextResultsRenderer"`
	} `json:"contents"`
}

type panelVideo struct {
	VideoID         string   `json:"videoId"`
	Title           textRuns `json:"title"`
	ShortBylineText textRuns `json:"shortBylineText"`
	LengthText      textRuns `json:"lengthText"`
	Thumbnail       struct {
		Thumbnails []thumbnailImage `json:"thumbnails"`
	} `json:"thumbnail"`
}

func (r *nextResponse) tracks() []domain.Record {
	var out []domain.Record
	for _, tab := range r.Contents.SingleColumnMusicWatchNextResultsRenderer.TabbedRenderer.WatchNextTabbedResultsRenderer.Tabs {
		for _, item := range tab.TabRenderer.Content.MusicQueueRenderer.Content.PlaylistPanelRenderer.Contents {
			pv := item.PlaylistPanelVideoRenderer
			if pv == nil || pv.VideoID == "" {
				continue
			}
			rec := domain.Record{
				ID:       domain.FormatID(serviceName, pv.VideoID),
				Kind:     domain.KindTrack,
				Service:  serviceName,
				Title:    pv.Title.text(),
				Artist:   pv.ShortBylineText.firstEntity(),
				Duration: parseClock(pv.LengthText.text()),
			}
			if len(pv.Thumbnail.Thumbnails) > 0 {
				rec.Artwork = pv.Thumbnail.Thumbnails[len(pv.Thumbnail.Thumbnails)-1].URL
			}
			out = append(out, rec)
		}
	}
	return out
}

// parseClock converts "m:ss" / "h:mm:ss" display lengths to seconds.
func parseClock(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for _, p := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
