package entities

import "crm-system/pkg/types"

// Company — арендатор (tenant). Все дивизионы и бизнес-сущности
// принадлежат ровно одной компании.
type Company struct {
	ID       uint64  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Email    *string `json:"email,omitempty" db:"email"`
	IsActive bool    `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}
