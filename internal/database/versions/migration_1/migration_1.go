package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type TrainingRun struct {
	ImagesProcessed bool `gorm:"default:false"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&TrainingRun{}, "images_processed"); err != nil {
		return fmt.Errorf("error adding ImagesProcessed column: %w", err)
	}

	if err := db.Model(&TrainingRun{}).
		Where("images_processed IS NULL").
		Update("images_processed", false).Error; err != nil {
		return fmt.Errorf("error setting default value for ImagesProcessed: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&TrainingRun{}, "ImagesProcessed"); err != nil {
		return fmt.Errorf("error dropping ImagesProcessed column: %w", err)
	}

	return nil
}
