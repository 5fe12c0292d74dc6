package entities

// DivisionClosure — материализованное отношение предок/потомок дерева дивизионов.
// Ровно одна строка на каждую достижимую пару, depth — длина пути.
// Пишется исключительно через ClosureMaintainer в транзакции вместе с дивизионом.
type DivisionClosure struct {
	AncestorID   uint64 `json:"ancestor_id" db:"ancestor_id"`
	DescendantID uint64 `json:"descendant_id" db:"descendant_id"`
	Depth        int    `json:"depth" db:"depth"`
}
