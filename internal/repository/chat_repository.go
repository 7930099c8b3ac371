package repository

import (
	"github.com/fbmoulin/2avaracivel-cariacica-website/internal/models"

	"gorm.io/gorm"
)

// ChatRepository stores chat exchanges server-side
type ChatRepository interface {
	Create(record *models.ChatRecord) error
	GetByConversation(conversationID string) ([]models.ChatRecord, error)
	RecentByConversation(conversationID string, limit int) ([]models.ChatRecord, error)
}

// GormChatRepository is the Postgres-backed implementation
type GormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) Create(record *models.ChatRecord) error {
	return r.db.Create(record).Error
}

func (r *GormChatRepository) GetByConversation(conversationID string) ([]models.ChatRecord, error) {
	var records []models.ChatRecord
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&records).Error
	return records, err
}

// RecentByConversation returns the last limit exchanges in original order
func (r *GormChatRepository) RecentByConversation(conversationID string, limit int) ([]models.ChatRecord, error) {
	var records []models.ChatRecord
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
