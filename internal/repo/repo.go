package repo

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotAvailable is returned when a conditional status transition finds the
// product in any state other than Available.
var ErrNotAvailable = errors.New("product is not available")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
