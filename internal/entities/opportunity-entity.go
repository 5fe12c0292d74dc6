package entities

import "crm-system/pkg/types"

type Opportunity struct {
	ID        uint64   `json:"id" db:"id"`
	CompanyID uint64   `json:"company_id" db:"company_id"`
	Name      string   `json:"name" db:"name"`
	Amount    *float64 `json:"amount,omitempty" db:"amount"`

	DivisionID *uint64 `json:"division_id" db:"division_id"`

	types.BaseEntity
	types.SoftDelete
}
