package entities

import "crm-system/pkg/types"

type Project struct {
	ID        uint64 `json:"id" db:"id"`
	CompanyID uint64 `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`

	DivisionID *uint64 `json:"division_id" db:"division_id"`

	types.BaseEntity
	types.SoftDelete
}
