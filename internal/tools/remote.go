package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/tradeezy-assistant/internal/bookings"
	"github.com/wolfman30/tradeezy-assistant/internal/catalog"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

const defaultRemoteTimeout = 30 * time.Second

// Remote executes tools by calling the sibling tool endpoints over HTTP.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRemote builds an executor rooted at baseURL, e.g. https://tools.example.com.
func NewRemote(baseURL string, timeout time.Duration, logger *logging.Logger) *Remote {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (r *Remote) GetBusinessServices(ctx context.Context, req ServicesRequest) (catalog.Listing, error) {
	var out struct {
		Services []catalog.Service `json:"services"`
	}
	if err := r.do(ctx, "/getBusinessServices", req, &out); err != nil {
		return catalog.Listing{}, err
	}
	if len(out.Services) == 0 {
		return catalog.Listing{}, catalog.ErrServiceNotFound
	}
	return catalog.Listing{Fields: catalog.NormalizeFields(req.Fields), Services: out.Services}, nil
}

func (r *Remote) CheckSlot(ctx context.Context, req CheckSlotRequest) (CheckSlotResponse, error) {
	var out CheckSlotResponse
	err := r.do(ctx, "/checkSlot", req, &out)
	return out, err
}

func (r *Remote) BookSlot(ctx context.Context, req BookSlotRequest) (bookings.Confirmation, error) {
	var out bookings.Confirmation
	err := r.do(ctx, "/bookSlot", req, &out)
	return out, err
}

func (r *Remote) CreateOrUpdateUser(ctx context.Context, req UserRequest) (UserResponse, error) {
	var out UserResponse
	err := r.do(ctx, "/create_or_update_user", req, &out)
	return out, err
}

func (r *Remote) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("tools: marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("tools: create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tools: %s request: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("tools: read %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		body := decodeErrorBody(respBody)
		r.logger.Warn("tool endpoint returned error", "path", path, "status", resp.StatusCode, "code", body.Code, "error", body.Error)
		if err := body.sentinel(); err != nil {
			return err
		}
		return fmt.Errorf("tools: %s status %d: %s", path, resp.StatusCode, body.Error)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("tools: unmarshal %s response: %w", path, err)
	}
	return nil
}

func decodeErrorBody(raw []byte) ErrorBody {
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	if msg == "" {
		msg = "empty response"
	}
	return ErrorBody{Error: msg}
}

var _ Executor = (*Remote)(nil)
