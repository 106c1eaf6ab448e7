package db

import (
	"gorm.io/gorm"
)

// OwnedBy restricts a query to rows belonging to the given wallet.
//
//	tx.Scopes(db.OwnedBy(wallet), db.NewestFirst()).Find(&plans)
func OwnedBy(wallet string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("wallet = ?", wallet)
	}
}

// NewestFirst orders by creation time descending, id as tie breaker.
func NewestFirst() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	}
}

// StatusIn restricts a query to rows whose status is one of statuses.
func StatusIn[S ~string](statuses ...S) func(db *gorm.DB) *gorm.DB {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN ?", values)
	}
}
