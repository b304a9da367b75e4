package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/guardpost/guardpost/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_branches",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.BranchModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.BranchModel{})
			},
		},
		{
			ID: "000002_create_users",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.UserModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_users_branch_id ON users (branch_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserModel{})
			},
		},
		{
			ID: "000003_create_sensors",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.SensorModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.SensorModel{})
			},
		},
		{
			ID: "000004_create_histories",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.HistoryModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_histories_branch_date ON histories (branch_id, date)`,
					`CREATE INDEX IF NOT EXISTS idx_histories_created_at ON histories (created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_histories_emergency ON histories (is_emergency) WHERE is_emergency`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.HistoryModel{})
			},
		},
		{
			ID: "000005_create_device_tokens",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.DeviceTokenModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_device_tokens_user_id ON device_tokens (user_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.DeviceTokenModel{})
			},
		},
	})

	return m.Migrate()
}
