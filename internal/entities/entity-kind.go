package entities

import "fmt"

// EntityKind — закрытый перечень видов сущностей, переносимых между дивизионами.
// Добавление нового вида требует правки таблицы обработчиков в AssignmentService,
// компилятор это подсветит.
type EntityKind string

const (
	EntityKindUser        EntityKind = "user"
	EntityKindContact     EntityKind = "contact"
	EntityKindProperty    EntityKind = "property"
	EntityKindOpportunity EntityKind = "opportunity"
	EntityKindProject     EntityKind = "project"
)

func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityKindUser, EntityKindContact, EntityKindProperty, EntityKindOpportunity, EntityKindProject:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("неизвестный вид сущности: %q", s)
}

// EntityRef — минимальная проекция переназначаемой сущности:
// её компания и текущий дивизион.
type EntityRef struct {
	ID         uint64  `json:"id" db:"id"`
	CompanyID  uint64  `json:"company_id" db:"company_id"`
	DivisionID *uint64 `json:"division_id" db:"division_id"`
}

// DivisionRefCounts — количество живых ссылок на дивизион по видам сущностей.
type DivisionRefCounts struct {
	Users         int64 `json:"users" db:"users"`
	Contacts      int64 `json:"contacts" db:"contacts"`
	Properties    int64 `json:"properties" db:"properties"`
	Opportunities int64 `json:"opportunities" db:"opportunities"`
	Projects      int64 `json:"projects" db:"projects"`
}

func (c DivisionRefCounts) Total() int64 {
	return c.Users + c.Contacts + c.Properties + c.Opportunities + c.Projects
}
