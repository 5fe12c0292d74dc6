package entities

import "crm-system/pkg/types"

type Property struct {
	ID        uint64  `json:"id" db:"id"`
	CompanyID uint64  `json:"company_id" db:"company_id"`
	Address   string  `json:"address" db:"address"`
	City      *string `json:"city,omitempty" db:"city"`

	DivisionID *uint64 `json:"division_id" db:"division_id"`

	types.BaseEntity
	types.SoftDelete
}
