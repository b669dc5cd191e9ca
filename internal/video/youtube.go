package video

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidURL         = errors.New("invalid YouTube URL format")
	ErrTranscriptDisabled = errors.New("transcript is disabled for this video")
	ErrVideoUnavailable   = errors.New("video is unavailable or private")
	ErrQuotaExceeded      = errors.New("YouTube API quota exceeded, please try again later")
	ErrTranscriptTooShort = errors.New("transcript is too short or incomplete")
)

// Shorter transcripts are intros or errors, not usable source material.
const minTranscriptLength = 50

var (
	videoIDRe    = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com|youtu\.be)/(?:watch\?v=|embed/|v/)?([a-zA-Z0-9_-]{11})`)
	bracketedRe  = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Video is a fetched transcript plus its provenance.
type Video struct {
	VideoID    string
	VideoURL   string
	Title      string
	Author     string
	Transcript string
}

// Loader fetches YouTube caption tracks via the public timedtext endpoint.
type Loader struct {
	client  *http.Client
	baseURL string
}

func NewLoader() *Loader {
	return &Loader{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://www.youtube.com/api/timedtext",
	}
}

// NewLoaderWithClient lets tests inject a client and endpoint.
func NewLoaderWithClient(client *http.Client, baseURL string) *Loader {
	return &Loader{client: client, baseURL: baseURL}
}

// ExtractVideoID pulls the 11-character video id out of any of the common
// YouTube URL shapes.
func ExtractVideoID(rawURL string) (string, error) {
	m := videoIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ErrInvalidURL
	}
	return m[1], nil
}

// Load fetches and cleans the English transcript of the given video URL.
func (l *Loader) Load(ctx context.Context, rawURL string) (*Video, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	transcript, err := l.fetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	cleaned := cleanTranscript(transcript)
	if len(cleaned) < minTranscriptLength {
		return nil, ErrTranscriptTooShort
	}

	return &Video{
		VideoID:    videoID,
		VideoURL:   rawURL,
		Title:      fmt.Sprintf("YouTube Video %s", videoID),
		Author:     "Unknown",
		Transcript: cleaned,
	}, nil
}

type timedText struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func (l *Loader) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return "", ErrVideoUnavailable
	case http.StatusForbidden:
		return "", ErrTranscriptDisabled
	case http.StatusTooManyRequests:
		return "", ErrQuotaExceeded
	default:
		return "", fmt.Errorf("fetch transcript: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Videos without captions answer 200 with an empty document.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrTranscriptDisabled
	}

	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}

	var parts []string
	for _, t := range doc.Texts {
		if s := strings.TrimSpace(html.UnescapeString(t.Body)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ErrTranscriptDisabled
	}

	return strings.Join(parts, " "), nil
}

// cleanTranscript drops bracketed stage directions like [Music] or
// (applause) and collapses whitespace.
func cleanTranscript(text string) string {
	text = bracketedRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
