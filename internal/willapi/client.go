// Package willapi is the client for the external will preparation, broadcast
// and query API. Responses are loosely-typed JSON; this package validates the
// envelope shape at the boundary and hands validated payloads upward.
package willapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaultguard/backend/internal/models"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a will API client. Every call is bounded by the given
// timeout; an expired timeout surfaces as ErrServer.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type PrepareWillRequest struct {
	UserAddress     string   `json:"userAddress"`
	Nominees        []string `json:"nominees"`
	DeadlineSeconds int64    `json:"deadlineSeconds"`
	EncryptedData   string   `json:"encryptedData"`
}

// envelope is the tagged success/error shape used by the prepare and
// broadcast endpoints.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// PrepareWill asks the external service for an unsigned create-will
// transaction. Nominee count (1..3) is enforced by the caller before this
// step ever runs.
func (c *Client) PrepareWill(ctx context.Context, req PrepareWillRequest) (json.RawMessage, error) {
	var env envelope
	if err := c.postJSON(ctx, "/will/prepare", req, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrServer, nonEmpty(env.Error, "failed to prepare transaction"))
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: prepare response missing transaction payload", ErrServer)
	}
	return env.Data, nil
}

// Broadcast submits a signed transaction. The server's error message is
// surfaced verbatim on failure.
func (c *Client) Broadcast(ctx context.Context, signedTx string) (json.RawMessage, error) {
	body := map[string]string{"signedTransaction": signedTx}

	var env envelope
	if err := c.postJSON(ctx, "/will/broadcast", body, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrServer, nonEmpty(env.Error, "failed to submit transaction"))
	}
	return env.Data, nil
}

type wireDeadline struct {
	Timestamp int64 `json:"timestamp"`
}

type wireWill struct {
	TokenID       json.Number   `json:"tokenId"`
	ID            int           `json:"id"`
	Deadline      *wireDeadline `json:"deadline"`
	Nominees      []string      `json:"nominees"`
	EncryptedHash string        `json:"encryptedHash"`
}

// ListWills fetches all wills owned by the given address, normalizing the
// API's loose shapes: deadline may be absent, nominees may be null.
func (c *Client) ListWills(ctx context.Context, owner string) ([]models.Will, error) {
	u := fmt.Sprintf("%s/wills?owner=%s", c.baseURL, url.QueryEscape(owner))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, string(b))
	}

	var payload struct {
		Data struct {
			Wills []wireWill `json:"wills"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid wills response: %v", ErrServer, err)
	}

	wills := make([]models.Will, 0, len(payload.Data.Wills))
	for i, w := range payload.Data.Wills {
		m := models.Will{
			TokenID:       w.TokenID.String(),
			ID:            w.ID,
			Owner:         owner,
			Nominees:      w.Nominees,
			EncryptedHash: w.EncryptedHash,
		}
		if m.ID == 0 {
			m.ID = i
		}
		if m.Nominees == nil {
			m.Nominees = []string{}
		}
		if w.Deadline != nil {
			ts := w.Deadline.Timestamp
			m.Deadline = &ts
		}
		wills = append(wills, m)
	}
	return wills, nil
}

// PreparePing asks for an unsigned ping transaction for one will. Domain
// rejections (not the owner, triggered, executed) come back as distinct
// sentinel errors; everything else is wrapped in ErrServer.
func (c *Client) PreparePing(ctx context.Context, userAddress, tokenID string) (json.RawMessage, error) {
	body := map[string]string{
		"userAddress": userAddress,
		"tokenId":     tokenID,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + "/ping"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServer, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		Data struct {
			UnsignedTransaction json.RawMessage `json:"unsignedTransaction"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("%w: invalid ping response: %v", ErrServer, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := nonEmpty(payload.Error, string(raw))
		if domainErr := mapPingError(msg); domainErr != nil {
			return nil, domainErr
		}
		return nil, fmt.Errorf("%w: %s", ErrServer, nonEmpty(msg, "failed to prepare ping transaction"))
	}

	if len(payload.Data.UnsignedTransaction) == 0 {
		return nil, fmt.Errorf("%w: ping response missing transaction payload", ErrServer)
	}
	return payload.Data.UnsignedTransaction, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out *envelope) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, string(raw))
	}

	if resp.StatusCode != http.StatusOK && out.Error == "" {
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}
	return nil
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
