package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	RunQueued    string = "QUEUED"
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
	RunFailed    string = "FAILED"
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

	ImagesProcessed bool `gorm:"default:false"`

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
