package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kiliankoe/cdrintake/internal/intake"
)

type Client struct {
	URL   string
	Token string
	http  *http.Client
}

func New(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{URL: strings.TrimSpace(url), Token: token, http: &http.Client{Timeout: timeout}}
}

type payload struct {
	Event       string            `json:"event"`
	ID          string            `json:"id"`
	SessionID   string            `json:"sessionId"`
	CountryCode string            `json:"countryCode"`
	SubmittedAt time.Time         `json:"submittedAt"`
	Answers     map[string]string `json:"answers"`
}

func (c *Client) Deliver(ctx context.Context, sub intake.Submission) error {
	if c.URL == "" {
		return errors.New("missing WEBHOOK_URL")
	}
	b, err := json.Marshal(payload{
		Event:       "intake.submitted",
		ID:          sub.ID,
		SessionID:   sub.SessionID,
		CountryCode: sub.CountryCode,
		SubmittedAt: sub.SubmittedAt,
		Answers:     sub.Answers,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", sub.ID)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
