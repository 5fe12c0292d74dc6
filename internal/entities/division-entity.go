package entities

import (
	"encoding/json"

	"crm-system/pkg/types"
)

// Division — узел дерева организационной структуры компании.
// Дерево произвольной глубины, parent_division_id ссылается на эту же таблицу.
type Division struct {
	ID        uint64 `json:"id" db:"id"`
	CompanyID uint64 `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`

	ParentDivisionID  *uint64 `json:"parent_division_id" db:"parent_division_id"`
	DivisionManagerID *uint64 `json:"division_manager_id" db:"division_manager_id"`

	SortOrder int `json:"sort_order" db:"sort_order"`

	TargetRevenue *float64        `json:"target_revenue,omitempty" db:"target_revenue"`
	ColorCode     *string         `json:"color_code,omitempty" db:"color_code"`
	Settings      json.RawMessage `json:"settings,omitempty" db:"settings"`

	IsActive bool `json:"is_active" db:"is_active"`

	// Прямые потомки, заполняется только в GetHierarchy.
	Children []Division `json:"children,omitempty" db:"-"`

	types.BaseEntity
	types.SoftDelete
}
