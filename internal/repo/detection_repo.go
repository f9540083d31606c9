package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/ninja0404/token-radar/internal/model"
)

// DetectionRepo 检测结果数据访问接口
type DetectionRepo interface {
	// Save 落库一条检测结果
	Save(result *model.DetectionResult) error

	// GetRecent 获取指定时间之后的检测记录，按发现时间倒序
	GetRecent(since time.Time, limit int) ([]*model.DetectionRecord, error)

	// GetByAddress 获取某个代币的历史检测记录
	GetByAddress(tokenAddress string, limit int) ([]*model.DetectionRecord, error)

	// CountBySource 按来源统计检测数量
	CountBySource(since time.Time) (map[string]int64, error)
}

type detectionRepoImpl struct {
	db *gorm.DB
}

func NewDetectionRepo(db *gorm.DB) DetectionRepo {
	return &detectionRepoImpl{
		db: db,
	}
}

func (r *detectionRepoImpl) Save(result *model.DetectionResult) error {
	record := model.NewDetectionRecord(result)
	return r.db.Create(record).Error
}

func (r *detectionRepoImpl) GetRecent(since time.Time, limit int) ([]*model.DetectionRecord, error) {
	var records []*model.DetectionRecord

	err := r.db.
		Where("detected_at >= ?", since).
		Order("detected_at DESC").
		Limit(limit).
		Find(&records).Error

	return records, err
}

func (r *detectionRepoImpl) GetByAddress(tokenAddress string, limit int) ([]*model.DetectionRecord, error) {
	var records []*model.DetectionRecord

	err := r.db.
		Where("token_address = ?", tokenAddress).
		Order("detected_at DESC").
		Limit(limit).
		Find(&records).Error

	return records, err
}

func (r *detectionRepoImpl) CountBySource(since time.Time) (map[string]int64, error) {
	type sourceCount struct {
		Source string
		Cnt    int64
	}
	var rows []sourceCount

	err := r.db.Model(&model.DetectionRecord{}).
		Select("source, COUNT(*) AS cnt").
		Where("detected_at >= ?", since).
		Group("source").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Source] = row.Cnt
	}
	return counts, nil
}
