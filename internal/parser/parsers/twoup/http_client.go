package twoup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://2up.io"
const listPath = "/api/sportProtal/web/event/date/list?eventDateList"
const refererPath = "/pt/sports/home?section=upcoming&sport=soccer"
const defaultLang = "pt"

// pageType 5 = upcoming events listing on the sport portal.
const pageTypeUpcoming = 5

const envelopeOK = "200"

// Transient failures (connection errors, 429, 5xx) are retried here
// with exponential backoff; everything the cursor sees is terminal.
const (
	maxRetries     = 3
	baseRetryDelay = 300 * time.Millisecond
)

const bodyPreviewLimit = 400

// Credentials are the session headers the upstream may require. They
// are supplied by configuration, never derived here.
type Credentials struct {
	Cookies          string
	RequestSign      string
	RequestTimestamp string
}

type Client struct {
	baseURL        string
	lang           string
	socketClientID string
	creds          Credentials
	client         *http.Client
}

func NewClient(baseURL string, timeout time.Duration, lang, socketClientID string, creds Credentials) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if lang == "" {
		lang = defaultLang
	}
	return &Client{
		baseURL:        baseURL,
		lang:           lang,
		socketClientID: socketClientID,
		creds:          creds,
		client:         &http.Client{Timeout: timeout},
	}
}

type listRequest struct {
	IsLive    int    `json:"isLive"`
	PageType  int    `json:"pageType"`
	SportURL  string `json:"sportUrl"`
	RegionURL string `json:"regionUrl"`
	LeagueURL string `json:"leagueUrl"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	PageSize  int    `json:"pageSize"`
	PageNum   int    `json:"pageNum"`
}

// ListEvents requests one page of upcoming soccer fixtures with kickoff
// inside [startMS, endMS). POST /api/sportProtal/web/event/date/list
func (c *Client) ListEvents(ctx context.Context, startMS, endMS int64, page, pageSize int) (*EventDateList, error) {
	payload := listRequest{
		IsLive:    0,
		PageType:  pageTypeUpcoming,
		SportURL:  "soccer",
		StartTime: startMS,
		EndTime:   endMS,
		PageSize:  pageSize,
		PageNum:   page,
	}
	body, err := c.post(ctx, c.baseURL+listPath, payload)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode list response: %w (body: %s)", err, preview(body))
	}
	if string(env.Code) != envelopeOK {
		return nil, fmt.Errorf("api envelope code %s: %s (the endpoint may require cookies plus X-Request-Sign/X-Request-Timestamp headers)",
			env.Code, preview(body))
	}
	if env.Data == nil {
		return &EventDateList{}, nil
	}
	return env.Data, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
			slog.Warn("2up: retrying request", "attempt", attempt, "max", maxRetries, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, preview(body))
		default:
			// 4xx other than 429 will not get better on retry: likely
			// missing credentials or a schema change.
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, preview(body))
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", c.lang+","+c.lang+";q=0.9,en;q=0.8")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	req.Header.Set("Lang", c.lang)
	req.Header.Set("Odds", "Decimal")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+refererPath)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36")
	req.Header.Set("Zoneoffset", "0")
	if c.socketClientID != "" {
		req.Header.Set("Socketclientid", c.socketClientID)
	}
	if c.creds.Cookies != "" {
		req.Header.Set("Cookie", c.creds.Cookies)
	}
	if c.creds.RequestSign != "" {
		req.Header.Set("X-Request-Sign", c.creds.RequestSign)
	}
	if c.creds.RequestTimestamp != "" {
		req.Header.Set("X-Request-Timestamp", c.creds.RequestTimestamp)
	}
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLimit {
		return string(body[:bodyPreviewLimit]) + "..."
	}
	return string(body)
}
