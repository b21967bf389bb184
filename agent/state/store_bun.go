package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// BunEventStore persists the event log in a Postgres append-only table. The
// bigserial primary key carries per-session insertion order; rows are never
// updated or deleted here.
type BunEventStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewBunEventStore(cfg PostgresConfig) (*BunEventStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &BunEventStore{
		db:  db,
		now: time.Now,
	}, nil
}

// Init creates the events table when it does not exist yet.
func (s *BunEventStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*ConversationEvent)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversation_events table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*ConversationEvent)(nil)).
		Index("conversation_events_session_idx").
		Column("session_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create session index: %w", err)
	}
	return nil
}

func (s *BunEventStore) AppendEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(eventType) == "" {
		return ErrInvalidEvent
	}

	event := NewConversationEvent(sessionID, eventType, data, s.now())
	if _, err := s.db.NewInsert().Model(&event).Exec(ctx); err != nil {
		return fmt.Errorf("%w: append event type=%s session=%s: %v", contractx.ErrPersistence, eventType, sessionID, err)
	}
	return nil
}

func (s *BunEventStore) Events(ctx context.Context, sessionID string) ([]ConversationEvent, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	var events []ConversationEvent
	if err := s.db.NewSelect().
		Model(&events).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load events session=%s: %w", sessionID, err)
	}
	return events, nil
}

func (s *BunEventStore) IsWaitingForContactInfo(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrInvalidSession
	}

	var event ConversationEvent
	err := s.db.NewSelect().
		Model(&event).
		Where("session_id = ? AND event_type = ?", sessionID, EventContactInfoFlag).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load checkpoint flag session=%s: %w", sessionID, err)
	}

	waiting, _ := event.Data["waiting"].(bool)
	return waiting, nil
}

func (s *BunEventStore) Close() error {
	return s.db.Close()
}
