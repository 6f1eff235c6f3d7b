package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog listing the order engine validates and decrements
// stock against. Catalog management itself is owned by the seller dashboard.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID       uuid.UUID        `gorm:"column:seller_id;type:uuid;not null;index"`
	SKU            string           `gorm:"column:sku;not null"`
	Name           string           `gorm:"column:name;not null"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	GSTRate        decimal.Decimal  `gorm:"column:gst_rate;type:numeric(5,2);not null;default:0"`
	DeliveryCharge decimal.Decimal  `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	Stock          int              `gorm:"column:stock;not null;default:0"`
	Approved       bool             `gorm:"column:approved;not null;default:false"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is an optional size/color variant of a product. Stock is
// tracked at the product level.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
