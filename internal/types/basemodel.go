package types

import (
	"context"
	"time"
)

// BaseModel carries the audit columns shared by every persisted entity.
// Any changes to this model should be reflected in the database schema by running migrations
type BaseModel struct {
	StoreID   string    `db:"store_id" json:"store_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

// GetDefaultBaseModel stamps a new row for the given store with the caller from ctx
func GetDefaultBaseModel(ctx context.Context, storeID string) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		StoreID:   storeID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: GetUserID(ctx),
		UpdatedBy: GetUserID(ctx),
	}
}
