package dto

import (
	"encoding/json"

	"github.com/aarondl/null/v8"
)

type CreateDivisionDTO struct {
	Name              string          `json:"name" validate:"required,min=1,max=150"`
	ParentDivisionID  null.Int        `json:"parent_division_id" validate:"omitempty"`
	DivisionManagerID null.Int        `json:"division_manager_id" validate:"omitempty"`
	TargetRevenue     *float64        `json:"target_revenue" validate:"omitempty,gte=0"`
	ColorCode         null.String     `json:"color_code" validate:"omitempty,color_code"`
	Settings          json.RawMessage `json:"settings,omitempty"`
}

// UpdateDivisionDTO — частичное обновление.
// ParentDivisionID: поле опущено — родитель не меняется; 0 — дивизион
// становится корневым; >0 — перенос под нового родителя.
type UpdateDivisionDTO struct {
	Name              *string         `json:"name" validate:"omitempty,min=1,max=150"`
	ParentDivisionID  null.Int        `json:"parent_division_id" validate:"omitempty"`
	DivisionManagerID null.Int        `json:"division_manager_id" validate:"omitempty"`
	TargetRevenue     *float64        `json:"target_revenue" validate:"omitempty,gte=0"`
	ColorCode         null.String     `json:"color_code" validate:"omitempty,color_code"`
	Settings          json.RawMessage `json:"settings,omitempty"`
	SortOrder         *int            `json:"sort_order" validate:"omitempty,gt=0"`
}

type DivisionDTO struct {
	ID                uint64          `json:"id"`
	CompanyID         uint64          `json:"company_id"`
	Name              string          `json:"name"`
	ParentDivisionID  *uint64         `json:"parent_division_id"`
	DivisionManagerID *uint64         `json:"division_manager_id"`
	SortOrder         int             `json:"sort_order"`
	TargetRevenue     *float64        `json:"target_revenue,omitempty"`
	ColorCode         *string         `json:"color_code,omitempty"`
	Settings          json.RawMessage `json:"settings,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         *string         `json:"created_at,omitempty"`
	UpdatedAt         *string         `json:"updated_at,omitempty"`
}

type ShortDivisionDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// DivisionTreeNodeDTO — узел собранного дерева иерархии.
// Level — глубина от корня (0 у корней), Path — имена от корня до узла.
type DivisionTreeNodeDTO struct {
	ID                uint64                `json:"id"`
	Name              string                `json:"name"`
	ParentDivisionID  *uint64               `json:"parent_division_id"`
	DivisionManagerID *uint64               `json:"division_manager_id"`
	SortOrder         int                   `json:"sort_order"`
	ColorCode         *string               `json:"color_code,omitempty"`
	Level             int                   `json:"level"`
	Path              []string              `json:"path"`
	Children          []DivisionTreeNodeDTO `json:"children"`
}
