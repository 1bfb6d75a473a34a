package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for the kitchenpos tables the orders context reads and writes.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&menuRecord{},
		&orderTableRecord{},
		&orderRecord{},
		&orderLineItemRecord{},
		&idempotencyRecord{},
	)
}

// Menu schema is owned by the menu context; orders only checks existence.
type menuRecord struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Name        string    `gorm:"column:name;not null"`
	Price       int64     `gorm:"column:price;not null"`
	MenuGroupID int64     `gorm:"column:menu_group_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (menuRecord) TableName() string { return "menus" }

type orderTableRecord struct {
	ID             int64     `gorm:"primaryKey;column:id"`
	NumberOfGuests int32     `gorm:"column:number_of_guests;not null;default:0"`
	Empty          bool      `gorm:"column:empty;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (orderTableRecord) TableName() string { return "order_tables" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID           int64     `gorm:"primaryKey;column:id;autoIncrement"`
	OrderTableID int64     `gorm:"column:order_table_id;index;not null"`
	OrderStatus  string    `gorm:"column:order_status;type:varchar(32);index;not null"`
	OrderedTime  time.Time `gorm:"column:ordered_time;not null"`
	Version      int64     `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineItemRecord struct {
	Seq      int64 `gorm:"primaryKey;column:seq;autoIncrement"`
	OrderID  int64 `gorm:"column:order_id;index;not null"`
	MenuID   int64 `gorm:"column:menu_id;not null"`
	Quantity int64 `gorm:"column:quantity;not null"`
}

func (orderLineItemRecord) TableName() string { return "order_line_items" }

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     int64     `gorm:"column:order_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }
