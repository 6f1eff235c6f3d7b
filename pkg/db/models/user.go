package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// User is the minimal account record the order engine needs; the full profile
// lives with the auth/profile services.
type User struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string     `gorm:"column:email;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;not null"`
	Role      enums.Role `gorm:"column:role;type:text;not null;default:'buyer'"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
