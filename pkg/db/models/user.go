package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/pkg/enums"
)

// User is an operator of the console: an admin or a driver who holds stock.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username  string         `gorm:"column:username;not null;uniqueIndex"`
	FullName  string         `gorm:"column:full_name"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}
