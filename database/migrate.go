package database

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"paygate_backend/internal/models"
)

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SubscriptionPlan{},
		&models.Transaction{},
		&models.PaymentLog{},
	)
}

// defaultPlans is the catalog a fresh deployment starts with. IDs are fixed
// so the provider's account.plan_id references stay stable across installs.
var defaultPlans = []models.SubscriptionPlan{
	{
		BaseModel: models.BaseModel{ID: "7b7dbf05-4e24-44cb-ae1b-37d8d9c1843b"},
		Name:      "Individual",
		Price:     2.99,
		Currency:  "UZS",
		Duration:  "monthly",
		Features:  datatypes.JSON([]byte(`{"priority_support": false}`)),
		Limits:    datatypes.JSON([]byte(`{"seats": 1}`)),
		IsActive:  true,
	},
	{
		BaseModel: models.BaseModel{ID: "2f0a3f7e-9d07-470b-8b16-5fb6c6d35a2d"},
		Name:      "Team",
		Price:     9.99,
		Currency:  "UZS",
		Duration:  "monthly",
		Features:  datatypes.JSON([]byte(`{"priority_support": true}`)),
		Limits:    datatypes.JSON([]byte(`{"seats": 10}`)),
		IsActive:  true,
	},
}

// SeedDefaultPlans inserts the default plan set. Plans already present keep
// whatever an operator changed about them.
func SeedDefaultPlans(db *gorm.DB) error {
	for _, plan := range defaultPlans {
		var existing models.SubscriptionPlan
		err := db.First(&existing, "id = ?", plan.ID).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}
