// Package youtube finds a watchable video for a track. It is a purely
// optional enrichment: no API key means every lookup quietly returns
// nothing.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	searchResultsPerQuery = 10

	minVideoSeconds = 60
	maxVideoSeconds = 600
)

type Service struct {
	httpClient *http.Client
	logger     *log.Logger
	apiURL     string
	apiKey     string
}

func NewService(apiKey string) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.New(os.Stdout, "youtube: ", log.LstdFlags|log.Lmsgprefix),
		apiURL: viper.GetString("youtube.api_url"),
		apiKey: apiKey,
	}
}

// WithEndpoint overrides the provider URL. Used by tests.
func (y *Service) WithEndpoint(apiURL string) *Service {
	y.apiURL = apiURL
	return y
}

func (y *Service) Enabled() bool {
	return y.apiKey != ""
}

// Video is one search hit with enough fields to score and link it.
type Video struct {
	ID      string `json:"video_id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
	URL     string `json:"url"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// FindTrackVideo searches for the official video of a track. Several
// query shapes are tried and the pooled hits are scored: official
// uploads and artist channels score up, lyric videos, live cuts, and
// covers score down. Nil when nothing scores above zero or the service
// is disabled.
func (y *Service) FindTrackVideo(ctx context.Context, trackName, artistName string) *Video {
	if !y.Enabled() {
		return nil
	}

	queries := []string{
		fmt.Sprintf("%s %s official video -lyrics -live -cover -remix", artistName, trackName),
		fmt.Sprintf("%s %s official audio -lyrics -live -cover -remix", artistName, trackName),
		fmt.Sprintf("%s %s -lyrics -live -cover -remix", artistName, trackName),
		fmt.Sprintf("%q %q -lyrics -live", trackName, artistName),
	}

	var pool []Video
	seen := make(map[string]struct{})
	for _, query := range queries {
		for _, v := range y.search(ctx, query) {
			if v.ID == "" {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			pool = append(pool, v)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	// Very short videos are trailers, very long ones are full concerts.
	durations := y.videoDurations(ctx, pool)
	kept := pool[:0]
	for _, v := range pool {
		if d := durations[v.ID]; d > 0 && (d < minVideoSeconds || d > maxVideoSeconds) {
			continue
		}
		kept = append(kept, v)
	}
	pool = kept
	if len(pool) == 0 {
		return nil
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return scoreVideo(pool[i], artistName) > scoreVideo(pool[j], artistName)
	})

	if scoreVideo(pool[0], artistName) <= 0 {
		return nil
	}
	return &pool[0]
}

func (y *Service) search(ctx context.Context, query string) []Video {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", searchResultsPerQuery))
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.apiURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		y.logger.Printf("video search failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		y.logger.Printf("video search failed: status %d", resp.StatusCode)
		return nil
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		y.logger.Printf("failed to decode search response: %v", err)
		return nil
	}

	videos := make([]Video, 0, len(result.Items))
	for _, item := range result.Items {
		videos = append(videos, Video{
			ID:      item.ID.VideoID,
			Title:   item.Snippet.Title,
			Channel: item.Snippet.ChannelTitle,
			URL:     "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos
}

type videoDetailsResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// videoDurations fetches durations in seconds for the pooled hits. A
// failed lookup returns an empty map; scoring proceeds without the
// duration filter rather than dropping the whole result.
func (y *Service) videoDurations(ctx context.Context, pool []Video) map[string]int {
	ids := make([]string, 0, len(pool))
	for _, v := range pool {
		ids = append(ids, v.ID)
	}

	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.apiURL+"/videos?"+params.Encode(), nil)
	if err != nil {
		return nil
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		y.logger.Printf("video details lookup failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		y.logger.Printf("video details lookup failed: status %d", resp.StatusCode)
		return nil
	}

	var result videoDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}

	durations := make(map[string]int, len(result.Items))
	for _, item := range result.Items {
		durations[item.ID] = parseISODuration(item.ContentDetails.Duration)
	}
	return durations
}

// parseISODuration handles the PT#H#M#S form the videos endpoint uses.
// Returns 0 for anything it cannot read.
func parseISODuration(s string) int {
	s, ok := strings.CutPrefix(s, "PT")
	if !ok {
		return 0
	}

	total, n := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
		case r == 'H':
			total, n = total+n*3600, 0
		case r == 'M':
			total, n = total+n*60, 0
		case r == 'S':
			total, n = total+n, 0
		default:
			return 0
		}
	}
	return total
}

func scoreVideo(v Video, artistName string) int {
	title := strings.ToLower(v.Title)
	channel := strings.ToLower(v.Channel)
	artist := strings.ToLower(artistName)

	score := 0
	switch {
	case strings.Contains(title, "official video"):
		score += 50
	case strings.Contains(title, "official audio"):
		score += 45
	case strings.Contains(title, "official"):
		score += 30
	}

	if artist != "" && (strings.Contains(channel, artist) || strings.Contains(artist, channel)) {
		score += 20
	}

	penalties := []struct {
		word string
		cost int
	}{
		{"lyrics", 30}, {"karaoke", 30}, {"live", 25}, {"concert", 25},
		{"cover", 20}, {"remix", 15}, {"instrumental", 10},
	}
	for _, p := range penalties {
		if strings.Contains(title, p.word) {
			score -= p.cost
		}
	}

	return score
}
