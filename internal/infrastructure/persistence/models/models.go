// Package models holds the gorm persistence models.
package models

// All returns every model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&PlanModel{},
		&SubscriptionModel{},
		&SubscriptionPaymentModel{},
		&SecurityAuditModel{},
	}
}
