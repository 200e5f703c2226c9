package persist

import (
	"errors"
	"time"

	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
	"gorm.io/gorm"
)

// Gateway is the durable mirror of match and settlement state. Writes
// are best effort from the core's perspective: callers log failures and
// never let them affect the in-memory decision. GetSettlement is the
// exception, a failed read makes the coordinator refuse to transfer.
type Gateway interface {
	SaveMatch(record *model.MatchRecord) error
	UpdateMatch(matchId string, patch map[string]any) error
	FindOrphanedActive(olderThan time.Time) ([]model.MatchRecord, error)
	SaveSettlement(record *model.SettlementRecord) error
	UpdateSettlement(matchId string, patch map[string]any) error
	GetSettlement(matchId string) (*model.SettlementRecord, error)
	ListFinished(page utils.PageRequest, playerId string) ([]model.MatchRecord, int64, error)
}

type gormGateway struct {
	db *gorm.DB
}

func NewGateway(db *gorm.DB) Gateway {
	return &gormGateway{db: db}
}

func (g *gormGateway) SaveMatch(record *model.MatchRecord) error {
	return g.db.Table(model.MatchRecord{}.TableName()).Create(record).Error
}

func (g *gormGateway) UpdateMatch(matchId string, patch map[string]any) error {
	return g.db.
		Model(&model.MatchRecord{}).
		Where("id = ?", matchId).
		Updates(patch).Error
}

func (g *gormGateway) FindOrphanedActive(olderThan time.Time) ([]model.MatchRecord, error) {
	var records []model.MatchRecord
	result := g.db.
		Model(&model.MatchRecord{}).
		Where("match_status = ? AND time_created < ?", model.MatchActive, olderThan).
		Find(&records)
	return records, result.Error
}

func (g *gormGateway) SaveSettlement(record *model.SettlementRecord) error {
	return g.db.Table(model.SettlementRecord{}.TableName()).Create(record).Error
}

func (g *gormGateway) GetSettlement(matchId string) (*model.SettlementRecord, error) {
	var record model.SettlementRecord
	result := g.db.
		Model(&model.SettlementRecord{}).
		Where("match_id = ?", matchId).
		First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (g *gormGateway) UpdateSettlement(matchId string, patch map[string]any) error {
	return g.db.
		Model(&model.SettlementRecord{}).
		Where("match_id = ?", matchId).
		Updates(patch).Error
}

func (g *gormGateway) ListFinished(page utils.PageRequest, playerId string) ([]model.MatchRecord, int64, error) {
	var records []model.MatchRecord
	var count int64

	q := g.db.
		Model(&model.MatchRecord{}).
		Where("match_status <> ?", model.MatchActive).
		Where("player_a_id = ? OR player_b_id = ?", playerId, playerId)

	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	result := q.
		Order("time_created DESC").
		Limit(page.Size).
		Offset(page.Offset).
		Find(&records)

	return records, count, result.Error
}
