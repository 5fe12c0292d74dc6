package repositories

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ClosureMaintainerInterface — единственный компонент, которому позволено
// писать в division_closure. Работает строго внутри транзакции вызывающего:
// любая ошибка откатывает и дивизион, и его closure-строки разом.
// Принадлежность дивизионов одной компании здесь не проверяется — это
// обязанность сервисного слоя до вызова.
type ClosureMaintainerInterface interface {
	OnCreate(ctx context.Context, q Querier, divisionID uint64, parentDivisionID *uint64) error
	OnReparent(ctx context.Context, q Querier, divisionID uint64, oldParentID, newParentID *uint64) error
}

type ClosureMaintainer struct {
	logger *zap.Logger
}

func NewClosureMaintainer(logger *zap.Logger) ClosureMaintainerInterface {
	return &ClosureMaintainer{logger: logger}
}

// OnCreate вставляет self-строку (D, D, 0) и, если задан родитель, по одной
// строке на каждого предка родителя: closure-строки родителя уже содержат всю
// его цепочку предков, поэтому достаточно depth+1 от них.
func (m *ClosureMaintainer) OnCreate(ctx context.Context, q Querier, divisionID uint64, parentDivisionID *uint64) error {
	if _, err := q.Exec(ctx,
		`INSERT INTO division_closure (ancestor_id, descendant_id, depth) VALUES ($1, $1, 0)`,
		divisionID,
	); err != nil {
		return fmt.Errorf("вставка self-строки closure для дивизиона %d: %w", divisionID, err)
	}

	if parentDivisionID == nil {
		return nil
	}

	if _, err := q.Exec(ctx,
		`INSERT INTO division_closure (ancestor_id, descendant_id, depth)
		 SELECT ancestor_id, $1, depth + 1
		 FROM division_closure
		 WHERE descendant_id = $2`,
		divisionID, *parentDivisionID,
	); err != nil {
		return fmt.Errorf("вставка closure-строк предков для дивизиона %d: %w", divisionID, err)
	}

	return nil
}

// OnReparent перестраивает closure-строки всего поддерева S переносимого
// дивизиона:
//  1. удаляются все пути "внешний предок -> узел поддерева" (descendant в S,
//     depth > 0, ancestor вне S) — внутренние пути S перенос не затрагивает;
//  2. если задан новый родитель, для каждой пары (предок нового родителя A
//     на глубине a) x (узел S на внутренней глубине d) вставляется
//     (A, узел, a+1+d).
//
// При newParentID == nil поддерево становится корневым, шаг 2 не нужен.
func (m *ClosureMaintainer) OnReparent(ctx context.Context, q Querier, divisionID uint64, oldParentID, newParentID *uint64) error {
	m.logger.Debug("Перенос поддерева дивизиона",
		zap.Uint64("division_id", divisionID),
		zap.Any("old_parent_id", oldParentID),
		zap.Any("new_parent_id", newParentID),
	)

	if _, err := q.Exec(ctx,
		`DELETE FROM division_closure
		 WHERE descendant_id IN (SELECT descendant_id FROM division_closure WHERE ancestor_id = $1)
		   AND depth > 0
		   AND ancestor_id NOT IN (SELECT descendant_id FROM division_closure WHERE ancestor_id = $1)`,
		divisionID,
	); err != nil {
		return fmt.Errorf("удаление внешних closure-путей поддерева %d: %w", divisionID, err)
	}

	if newParentID == nil {
		return nil
	}

	if _, err := q.Exec(ctx,
		`INSERT INTO division_closure (ancestor_id, descendant_id, depth)
		 SELECT a.ancestor_id, s.descendant_id, a.depth + 1 + s.depth
		 FROM division_closure AS a
		 CROSS JOIN division_closure AS s
		 WHERE a.descendant_id = $2
		   AND s.ancestor_id = $1`,
		divisionID, *newParentID,
	); err != nil {
		return fmt.Errorf("вставка closure-путей поддерева %d под родителя %d: %w", divisionID, *newParentID, err)
	}

	return nil
}
