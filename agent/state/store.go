package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidEvent   = errors.New("event type is empty")
)

const (
	defaultStoreKeyPrefix = "conv:session:events:"
	defaultStoreTTL       = 30 * 24 * time.Hour
	maxResponseSizeBytes  = 4 << 20
)

// Store is the checkpoint-store contract used by the inbound message router.
//
// AppendEvent must persist events for one session in the order the calls were
// issued; callers serialize per-session access. A persistence failure is
// surfaced, never swallowed: losing an extraction event is a data-loss event.
// Both implementations give read-your-own-writes consistency: a flag appended
// by one call is visible to the next read for the same session.
type Store interface {
	AppendEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error
	Events(ctx context.Context, sessionID string) ([]ConversationEvent, error)
	IsWaitingForContactInfo(ctx context.Context, sessionID string) (bool, error)
}

// StoreOption customizes UpstashEventStore.
type StoreOption func(*UpstashEventStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashEventStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashEventStore) {
		s.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashEventStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithClock overrides timestamp assignment, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *UpstashEventStore) {
		if now != nil {
			s.now = now
		}
	}
}

// UpstashEventStore keeps each session's event log as an Upstash Redis list,
// reached over the REST API. RPUSH is atomic per key, which gives the required
// monotonic per-session write ordering for free.
type UpstashEventStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	now        func() time.Time
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashEventStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashEventStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashEventStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

func (s *UpstashEventStore) AppendEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(eventType) == "" {
		return ErrInvalidEvent
	}

	event := NewConversationEvent(sessionID, eventType, data, s.now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal conversation event: %w", err)
	}

	if _, err := s.exec(ctx, []any{"RPUSH", key, string(payload)}); err != nil {
		return fmt.Errorf("%w: append event type=%s session=%s: %v", contractx.ErrPersistence, eventType, sessionID, err)
	}

	if s.ttl > 0 {
		// Sliding retention window; failure to refresh it must not fail the append.
		if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to refresh event log ttl")
		}
	}

	return nil
}

func (s *UpstashEventStore) Events(ctx context.Context, sessionID string) ([]ConversationEvent, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var encoded []string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode event log payload: %w", err)
	}

	events := make([]ConversationEvent, 0, len(encoded))
	for _, raw := range encoded {
		var event ConversationEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("unmarshal conversation event: %w", err)
		}
		events = append(events, event)
	}

	return events, nil
}

func (s *UpstashEventStore) IsWaitingForContactInfo(ctx context.Context, sessionID string) (bool, error) {
	events, err := s.Events(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return WaitingForContactInfo(events), nil
}

func (s *UpstashEventStore) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}

func (s *UpstashEventStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
