package entities

import "crm-system/pkg/types"

type Contact struct {
	ID        uint64  `json:"id" db:"id"`
	CompanyID uint64  `json:"company_id" db:"company_id"`
	Fio       string  `json:"fio" db:"fio"`
	Email     *string `json:"email,omitempty" db:"email"`
	Phone     *string `json:"phone,omitempty" db:"phone"`

	DivisionID *uint64 `json:"division_id" db:"division_id"`

	types.BaseEntity
	types.SoftDelete
}
