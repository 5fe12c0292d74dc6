package dto

import "github.com/aarondl/null/v8"

type ReassignEntityDTO struct {
	EntityType string `json:"entity_type" validate:"required,oneof=user contact property opportunity project"`
	EntityID   uint64 `json:"entity_id" validate:"required,gt=0"`
	// Не указан — сущность уедет в дивизион "General" своей компании.
	NewDivisionID null.Int `json:"new_division_id" validate:"omitempty"`
}

type BulkReassignDTO struct {
	Assignments []ReassignEntityDTO `json:"assignments" validate:"required,min=1,dive"`
}

// AssignmentResultDTO — структурированный результат одного переноса.
// Ошибки не пробрасываются наружу, а фиксируются здесь, чтобы пакетная
// операция могла продолжать работу.
type AssignmentResultDTO struct {
	RequestID          string  `json:"request_id"`
	Success            bool    `json:"success"`
	EntityType         string  `json:"entity_type"`
	EntityID           uint64  `json:"entity_id"`
	PreviousDivisionID *uint64 `json:"previous_division_id"`
	NewDivisionID      *uint64 `json:"new_division_id"`
	Message            string  `json:"message"`
}

type BulkReassignResultDTO struct {
	SuccessCount int                   `json:"success_count"`
	FailureCount int                   `json:"failure_count"`
	Results      []AssignmentResultDTO `json:"results"`
}
