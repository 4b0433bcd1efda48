package repository

import (
	"fmt"

	"github.com/examgate/examgate/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JournalRepository is the local write-behind record of delivered items and
// finalized completions. It exists so analytics can degrade gracefully when
// the backend record fetch fails; session state never reads from it.
type JournalRepository interface {
	AppendItem(item *model.JournalItem) error
	RecordCompletion(completion *model.JournalCompletion) error
	FindItems(candidate, topic string, difficulty int) ([]model.JournalItem, error)
	FindCompletions(candidate string) ([]model.JournalCompletion, error)
}

type journalRepository struct {
	db *gorm.DB
}

// OpenJournal opens (and migrates) the sqlite journal at path. Use ":memory:"
// for an ephemeral journal.
func OpenJournal(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&model.JournalItem{}, &model.JournalCompletion{}); err != nil {
		return nil, fmt.Errorf("migrating journal schema: %w", err)
	}
	return db, nil
}

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) AppendItem(item *model.JournalItem) error {
	return r.db.Create(item).Error
}

func (r *journalRepository) RecordCompletion(completion *model.JournalCompletion) error {
	return r.db.Create(completion).Error
}

func (r *journalRepository) FindItems(candidate, topic string, difficulty int) ([]model.JournalItem, error) {
	query := r.db.Model(&model.JournalItem{})
	if candidate != "" {
		query = query.Where("candidate = ?", candidate)
	}
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	if difficulty > 0 {
		query = query.Where("difficulty = ?", difficulty)
	}

	var items []model.JournalItem
	err := query.Order("answered_at ASC").Find(&items).Error
	return items, err
}

func (r *journalRepository) FindCompletions(candidate string) ([]model.JournalCompletion, error) {
	query := r.db.Model(&model.JournalCompletion{})
	if candidate != "" {
		query = query.Where("candidate = ?", candidate)
	}

	var completions []model.JournalCompletion
	err := query.Order("completed_at ASC").Find(&completions).Error
	return completions, err
}
