package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/models"
)

type httpServerAdapter struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPServerAdapter(cfg config.ClientAdapter) ServerAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout)

	return &httpServerAdapter{client: cli}
}

func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpServerAdapter) Register(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, user, "/api/auth/register")
}

func (h *httpServerAdapter) Login(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, user, "/api/auth/login")
}

func (h *httpServerAdapter) authenticate(ctx context.Context, user models.User, path string) (models.Token, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(user).
		Post(path)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	token, err := parseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.Token{}, fmt.Errorf("parse bearer token: %w", err)
	}

	h.SetToken(token)
	return models.Token{SignedString: token}, nil
}

func (h *httpServerAdapter) CreateList(ctx context.Context, req models.CreateListRequest) (models.Snapshot, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/lists")
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Snapshot{}, err
	}

	var snapshot models.Snapshot
	if err = json.Unmarshal(resp.Body(), &snapshot); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode create list response: %w", err)
	}

	return snapshot, nil
}

func (h *httpServerAdapter) GetSnapshot(ctx context.Context, entityID string) (models.Snapshot, error) {
	resp, err := h.authedRequest(ctx).Get("/api/lists/" + entityID)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Snapshot{}, err
	}

	var snapshot models.Snapshot
	if err = json.Unmarshal(resp.Body(), &snapshot); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot response: %w", err)
	}

	return snapshot, nil
}

func (h *httpServerAdapter) ShareList(ctx context.Context, entityID, editorLogin string) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"login": editorLogin}).
		Post("/api/lists/" + entityID + "/editors")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) Apply(ctx context.Context, op models.Operation) (models.Snapshot, error) {
	req := models.ApplyRequest{
		OpID:    op.OpID,
		Kind:    op.Kind,
		Payload: op.Payload,
	}

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/lists/" + op.EntityID + "/ops")
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}

	return mapApplyResponse(resp)
}

func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: ping returned http %d", ErrServerUnavailable, resp.StatusCode())
	}

	return nil
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// mapApplyResponse decodes the apply endpoint's body and converts its wire
// status into a typed outcome. The body is authoritative: the HTTP status
// code alone does not distinguish a conflict carrying a snapshot from other
// rejections.
func mapApplyResponse(resp *resty.Response) (models.Snapshot, error) {
	if resp.StatusCode() >= http.StatusInternalServerError {
		return models.Snapshot{}, fmt.Errorf("%w: http %d", ErrServerUnavailable, resp.StatusCode())
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return models.Snapshot{}, ErrUnauthorized
	}

	var body models.ApplyResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode apply response: %w", err)
	}

	switch body.Status {
	case models.StatusApplied:
		if body.Snapshot == nil {
			return models.Snapshot{}, errors.New("apply response is missing snapshot")
		}
		return *body.Snapshot, nil

	case models.StatusConflict:
		conflictErr := &ConflictError{}
		if body.Snapshot != nil {
			conflictErr.Snapshot = *body.Snapshot
		}
		return models.Snapshot{}, conflictErr

	case models.StatusForbidden:
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrForbidden, body.Error)

	case models.StatusNotFound:
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, body.Error)

	case models.StatusInvalid:
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrInvalidOperation, body.Error)

	default:
		return models.Snapshot{}, fmt.Errorf("unexpected apply status %q (http %d)", body.Status, resp.StatusCode())
	}
}

func parseBearerToken(value string) (string, error) {
	parts := strings.Split(strings.TrimSpace(value), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
