package entities

import "crm-system/pkg/types"

type User struct {
	ID        uint64 `json:"id" db:"id"`
	CompanyID uint64 `json:"company_id" db:"company_id"`
	Fio       string `json:"fio" db:"fio"`
	Email     string `json:"email" db:"email"`

	Password string `json:"-" db:"password"`

	DivisionID *uint64 `json:"division_id" db:"division_id"`
	IsActive   bool    `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}
