package migration_0

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrainingRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	ProjectName string `gorm:"not null"`
	ProjectId   sql.NullString
	IterationId sql.NullString

	Status     string `gorm:"size:20;not null"`
	ImageCount int    `gorm:"default:0"`
	TagCount   int    `gorm:"default:0"`
	Error      sql.NullString

	CreationTime   time.Time
	CompletionTime sql.NullTime

	Images []UploadedImage `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type UploadedImage struct {
	RunId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Filename string    `gorm:"primaryKey"`
	Tag      string    `gorm:"not null"`
	TagId    string
	Status   string
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&TrainingRun{}, &UploadedImage{}); err != nil {
		return fmt.Errorf("error creating initial tables: %w", err)
	}
	return nil
}
