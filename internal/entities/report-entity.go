package entities

// DivisionReportItem — строка отчёта по дивизионам: сколько сущностей
// каждого вида закреплено за дивизионом.
type DivisionReportItem struct {
	DivisionID   uint64  `json:"division_id" db:"division_id"`
	DivisionName string  `json:"division_name" db:"division_name"`
	ParentName   *string `json:"parent_name,omitempty" db:"parent_name"`
	ManagerFio   *string `json:"manager_fio,omitempty" db:"manager_fio"`

	DivisionRefCounts
}
