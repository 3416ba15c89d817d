// Package rest implements the CrewStore contract against a crewd server:
// plain JSON over HTTP for reads and writes, a WebSocket per crew for the
// change feed.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/store"
)

// Ensure Client implements the contract.
var _ store.CrewStore = (*Client)(nil)

// Client is an HTTP/WebSocket CrewStore backed by a crewd server.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
	log     *slog.Logger
}

// New returns a Client for the crewd server at baseURL (no trailing slash).
func New(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// errorBody matches crewd's error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// membersBody matches GET /crews/{id}/members.
type membersBody struct {
	Members []domain.Member `json:"members"`
}

// FetchMembers returns the crew's current member list.
func (c *Client) FetchMembers(ctx context.Context, crewID string) ([]domain.Member, error) {
	var body membersBody
	err := c.do(ctx, http.MethodGet, "/crews/"+crewID+"/members", nil, &body)
	if err != nil {
		return nil, fmt.Errorf("rest.Client.FetchMembers: %w", err)
	}
	if body.Members == nil {
		return []domain.Member{}, nil
	}
	return body.Members, nil
}

// UpsertLocation records the member's latest position and speed.
func (c *Client) UpsertLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) error {
	req := struct {
		Lat   float64 `json:"lat"`
		Lng   float64 `json:"lng"`
		Speed float64 `json:"speed"`
	}{loc.Lat, loc.Lng, speed}

	path := fmt.Sprintf("/crews/%s/members/%s/location", crewID, memberID)
	if err := c.do(ctx, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("rest.Client.UpsertLocation: %w", err)
	}
	return nil
}

// CreateCrew registers a new crew ID.
func (c *Client) CreateCrew(ctx context.Context, crewID string) error {
	req := struct {
		ID string `json:"id"`
	}{crewID}

	if err := c.do(ctx, http.MethodPost, "/crews", req, nil); err != nil {
		return fmt.Errorf("rest.Client.CreateCrew: %w", err)
	}
	return nil
}

// CreateMember registers a new member of an existing crew.
func (c *Client) CreateMember(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error) {
	req := struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Color string    `json:"color"`
	}{memberID, name, color}

	var m domain.Member
	if err := c.do(ctx, http.MethodPost, "/crews/"+crewID+"/members", req, &m); err != nil {
		return domain.Member{}, fmt.Errorf("rest.Client.CreateMember: %w", err)
	}
	return m, nil
}

// UpsertMember inserts or updates a member of an existing crew.
func (c *Client) UpsertMember(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error) {
	req := struct {
		Name string `json:"name"`
	}{name}

	var m domain.Member
	path := fmt.Sprintf("/crews/%s/members/%s", crewID, memberID)
	if err := c.do(ctx, http.MethodPut, path, req, &m); err != nil {
		return domain.Member{}, fmt.Errorf("rest.Client.UpsertMember: %w", err)
	}
	return m, nil
}

// DeleteMember removes a member's record from a crew.
func (c *Client) DeleteMember(ctx context.Context, crewID string, memberID uuid.UUID) error {
	path := fmt.Sprintf("/crews/%s/members/%s", crewID, memberID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("rest.Client.DeleteMember: %w", err)
	}
	return nil
}

// do performs one JSON request. Responses outside 2xx are mapped back to the
// domain sentinels so callers never see raw HTTP status codes.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return fmt.Errorf("%s: %w", msg, domain.ErrValidation)
	default:
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, msg)
	}
}
