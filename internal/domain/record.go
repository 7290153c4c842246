package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record 所有持久化实体的公共字段
type Record struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Enabled   bool           `gorm:"not null;default:true" json:"enabled"`
}

// BeforeCreate 未指定 ID 时生成 UUID；ID 一经写入不再变化
func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
