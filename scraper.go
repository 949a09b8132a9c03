package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWatchBase = "https://www.youtube.com/watch?v="
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// CaptionTrack - single caption option from the player payload
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// playerResponse - the slice of ytInitialPlayerResponse we care about
type playerResponse struct {
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// VideoMeta is what the locator learns about a video from its watch page.
type VideoMeta struct {
	VideoID string
	Title   string
	Tracks  []CaptionTrack
}

// TrackSelector picks one caption track from a non-empty list.
type TrackSelector func(tracks []CaptionTrack) *CaptionTrack

// firstTrack selects the first track in source order.
func firstTrack(tracks []CaptionTrack) *CaptionTrack {
	return &tracks[0]
}

// trackForLanguage returns a selector that prefers an exact language match,
// then a prefix match in either direction, then the first track.
func trackForLanguage(lang string) TrackSelector {
	return func(tracks []CaptionTrack) *CaptionTrack {
		for i := range tracks {
			if tracks[i].LanguageCode == lang {
				return &tracks[i]
			}
		}
		for i := range tracks {
			if strings.HasPrefix(tracks[i].LanguageCode, lang+"-") {
				return &tracks[i]
			}
		}
		langPrefix := strings.Split(lang, "-")[0]
		for i := range tracks {
			if tracks[i].LanguageCode == langPrefix {
				return &tracks[i]
			}
		}
		return &tracks[0]
	}
}

// Fetcher performs the two network calls of a run: the watch page and the
// caption document. WatchBase is overridable so tests can point it at a
// local server.
type Fetcher struct {
	Client    *http.Client
	WatchBase string
	UserAgent string
}

func newFetcher() *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: 30 * time.Second},
		WatchBase: defaultWatchBase,
		UserAgent: defaultUserAgent,
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: GET %s returned status %d", ErrNetwork, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	return string(body), nil
}

// fetchVideoMeta retrieves the watch page for a video ID and extracts the
// embedded player payload.
func (f *Fetcher) fetchVideoMeta(ctx context.Context, videoID string) (*VideoMeta, error) {
	page, err := f.get(ctx, f.WatchBase+videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page for %s: %w", videoID, err)
	}

	pr, err := extractPlayerResponse(page)
	if err != nil {
		return nil, err
	}

	if err := checkPlayability(pr); err != nil {
		return nil, err
	}

	return &VideoMeta{
		VideoID: videoID,
		Title:   pr.VideoDetails.Title,
		Tracks:  pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks,
	}, nil
}

// locateCaptionTrack resolves a video ID to a caption track using the given
// selection policy.
func (f *Fetcher) locateCaptionTrack(ctx context.Context, videoID string, sel TrackSelector) (*CaptionTrack, *VideoMeta, error) {
	meta, err := f.fetchVideoMeta(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}

	if len(meta.Tracks) == 0 {
		return nil, nil, fmt.Errorf("%w: video %s has no caption tracks", ErrNoCaptions, videoID)
	}

	if sel == nil {
		sel = firstTrack
	}
	track := sel(meta.Tracks)
	if track == nil || track.BaseURL == "" {
		return nil, nil, fmt.Errorf("%w: selected track has no fetch URL", ErrNoCaptions)
	}

	return track, meta, nil
}

// fetchTranscript retrieves the caption document and parses it into ordered
// timed segments.
func (f *Fetcher) fetchTranscript(ctx context.Context, trackURL string) ([]TranscriptItem, error) {
	doc, err := f.get(ctx, trackURL)
	if err != nil {
		return nil, fmt.Errorf("fetch caption document: %w", err)
	}
	return parseTimedText(doc)
}

// checkPlayability rejects videos the player reports as unwatchable.
func checkPlayability(pr *playerResponse) error {
	reason := pr.PlayabilityStatus.Reason
	switch pr.PlayabilityStatus.Status {
	case "UNPLAYABLE":
		return fmt.Errorf("%w: private or removed video", ErrVideoUnavailable)
	case "LOGIN_REQUIRED":
		if strings.Contains(strings.ToLower(reason), "age") {
			return fmt.Errorf("%w: age-restricted video", ErrVideoUnavailable)
		}
		return fmt.Errorf("%w: login required", ErrVideoUnavailable)
	case "ERROR":
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	}
	return nil
}

// extractPlayerResponse locates the ytInitialPlayerResponse JSON embedded in
// watch-page markup. The payload contains quoted braces, so the end of the
// object is found by brace matching that is aware of strings and escapes.
func extractPlayerResponse(page string) (*playerResponse, error) {
	start := -1
	for _, marker := range []string{"ytInitialPlayerResponse = ", "var ytInitialPlayerResponse = "} {
		if idx := strings.Index(page, marker); idx != -1 {
			start = idx + len(marker)
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("%w: ytInitialPlayerResponse not found in page", ErrParse)
	}

	if start >= len(page) || page[start] != '{' {
		return nil, fmt.Errorf("%w: expected JSON object after marker", ErrParse)
	}

	end, err := scanJSONObject(page, start)
	if err != nil {
		return nil, err
	}

	pr := &playerResponse{}
	if err := json.Unmarshal([]byte(page[start:end]), pr); err != nil {
		return nil, fmt.Errorf("%w: decode player payload: %v", ErrParse, err)
	}

	return pr, nil
}

// scanJSONObject returns the index just past the object starting at page[start].
func scanJSONObject(page string, start int) (int, error) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(page); i++ {
		ch := page[i]

		if escaped {
			escaped = false
			continue
		}

		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: unbalanced braces in player payload", ErrParse)
}

// Timed-text parsing. The caption document is a sequence of
// <text start="12.34" dur="1.5">payload</text> elements; payloads may carry
// nested markup and character entities.
var (
	textElementRe = regexp.MustCompile(`(?s)<text\s+start="([^"]*)"(?:\s+dur="([^"]*)")?[^>]*>(.*?)</text>`)
	markupTagRe   = regexp.MustCompile(`<[^>]+>`)
)

// parseTimedText parses a caption document into ordered timed segments,
// stripping nested markup but leaving entities encoded.
func parseTimedText(doc string) ([]TranscriptItem, error) {
	matches := textElementRe.FindAllStringSubmatch(doc, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no timed text elements found", ErrParse)
	}

	items := make([]TranscriptItem, 0, len(matches))
	for _, m := range matches {
		start, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed start attribute %q", ErrParse, m[1])
		}

		var dur float64
		if m[2] != "" {
			dur, err = strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed dur attribute %q", ErrParse, m[2])
			}
		}

		text := strings.TrimSpace(markupTagRe.ReplaceAllString(m[3], ""))
		items = append(items, TranscriptItem{
			Start:    start,
			Duration: dur,
			Text:     text,
		})
	}

	return items, nil
}
