package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/project-pneuma/internal/types"
)

// PostgresStore persists session documents through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open gorm handle.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB returns the gorm handle.
func (s *PostgresStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the session tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&personalityStateModel{},
		&sessionMemoryModel{},
		&conversationModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadState(ctx context.Context, sessionID string) (*types.PersonalityState, error) {
	var record personalityStateModel
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query personality state: %w", err)
	}
	return stateFromModel(record)
}

func (s *PostgresStore) SaveState(ctx context.Context, sessionID string, state types.PersonalityState) error {
	record, err := stateToModel(sessionID, state)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert personality state: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadMemory(ctx context.Context, sessionID string) (*types.MemoryDocument, error) {
	var record sessionMemoryModel
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session memory: %w", err)
	}
	return memoryFromModel(record)
}

func (s *PostgresStore) SaveMemory(ctx context.Context, sessionID string, doc types.MemoryDocument) error {
	record, err := memoryToModel(sessionID, doc)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert session memory: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadConversations(ctx context.Context, sessionID string) (*types.ConversationDocument, error) {
	var records []conversationModel
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("started_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return conversationsFromModels(records)
}

func (s *PostgresStore) SaveConversations(ctx context.Context, sessionID string, doc types.ConversationDocument) error {
	records, err := conversationsToModels(sessionID, doc)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to upsert conversations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}
