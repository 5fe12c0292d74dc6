package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	"crm-system/internal/repositories"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/types"
	"crm-system/pkg/utils"

	"go.uber.org/zap"
)

// DefaultDivisionName — дивизион-приёмник по умолчанию. Создаётся при
// онбординге компании и служит fallback'ом при переносах без явной цели.
const DefaultDivisionName = "General"

const hierarchyCacheKeyPrefix = "division:hierarchy:"

// DivisionServiceInterface — бизнес-правила дерева дивизионов:
// изоляция компаний, уникальность имён, запрет циклов, охрана удаления.
type DivisionServiceInterface interface {
	GetDivisions(ctx context.Context, companyID uint64, filter types.Filter) ([]dto.DivisionDTO, uint64, error)
	GetHierarchy(ctx context.Context, companyID uint64) ([]dto.DivisionTreeNodeDTO, error)
	FindDivision(ctx context.Context, companyID, id uint64) (*dto.DivisionDTO, error)
	CreateDivision(ctx context.Context, companyID uint64, payload dto.CreateDivisionDTO) (*dto.DivisionDTO, error)
	UpdateDivision(ctx context.Context, companyID, id uint64, payload dto.UpdateDivisionDTO) (*dto.DivisionDTO, error)
	DeleteDivision(ctx context.Context, companyID, id uint64) error
	ResolveDivisionID(ctx context.Context, companyID uint64, divisionID *uint64) (uint64, error)
}

type DivisionService struct {
	divisionRepo   repositories.DivisionRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	hierarchyTTL   time.Duration
	logger         *zap.Logger
}

func NewDivisionService(
	divisionRepo repositories.DivisionRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	hierarchyTTL time.Duration,
	logger *zap.Logger,
) DivisionServiceInterface {
	return &DivisionService{
		divisionRepo:   divisionRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		cacheRepo:      cacheRepo,
		hierarchyTTL:   hierarchyTTL,
		logger:         logger,
	}
}

func hierarchyCacheKey(companyID uint64) string {
	return fmt.Sprintf("%s%d", hierarchyCacheKeyPrefix, companyID)
}

func (s *DivisionService) invalidateHierarchyCache(ctx context.Context, companyID uint64) {
	if err := s.cacheRepo.Del(ctx, hierarchyCacheKey(companyID)); err != nil {
		s.logger.Warn("не удалось сбросить кеш иерархии", zap.Uint64("company_id", companyID), zap.Error(err))
	}
}

func (s *DivisionService) GetDivisions(ctx context.Context, companyID uint64, filter types.Filter) ([]dto.DivisionDTO, uint64, error) {
	divisions, total, err := s.divisionRepo.GetDivisions(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.DivisionDTO, 0, len(divisions))
	for i := range divisions {
		result = append(result, toDivisionDTO(&divisions[i]))
	}
	return result, total, nil
}

// GetHierarchy возвращает собранный лес дивизионов компании.
// Результат кешируется в Redis и сбрасывается при любой мутации дерева.
func (s *DivisionService) GetHierarchy(ctx context.Context, companyID uint64) ([]dto.DivisionTreeNodeDTO, error) {
	key := hierarchyCacheKey(companyID)
	if cached, err := s.cacheRepo.Get(ctx, key); err == nil && cached != "" {
		var tree []dto.DivisionTreeNodeDTO
		if err := json.Unmarshal([]byte(cached), &tree); err == nil {
			return tree, nil
		}
		s.logger.Warn("кеш иерархии повреждён, перечитываем из БД", zap.String("key", key))
	}

	divisions, err := s.divisionRepo.GetHierarchy(ctx, companyID)
	if err != nil {
		return nil, err
	}
	tree := buildDivisionForest(divisions)

	if payload, err := json.Marshal(tree); err == nil {
		if err := s.cacheRepo.Set(ctx, key, payload, s.hierarchyTTL); err != nil {
			s.logger.Warn("не удалось записать кеш иерархии", zap.String("key", key), zap.Error(err))
		}
	}
	return tree, nil
}

// buildDivisionForest собирает из плоского списка лес с уровнями и путями.
// Порядок детей — sort_order, затем id; сироты (родитель неактивен) поднимаются в корни.
func buildDivisionForest(divisions []entities.Division) []dto.DivisionTreeNodeDTO {
	byID := make(map[uint64]*entities.Division, len(divisions))
	for i := range divisions {
		byID[divisions[i].ID] = &divisions[i]
	}

	childrenOf := make(map[uint64][]*entities.Division)
	roots := make([]*entities.Division, 0)
	for i := range divisions {
		d := &divisions[i]
		if d.ParentDivisionID != nil {
			if _, ok := byID[*d.ParentDivisionID]; ok {
				childrenOf[*d.ParentDivisionID] = append(childrenOf[*d.ParentDivisionID], d)
				continue
			}
		}
		roots = append(roots, d)
	}

	orderNodes := func(nodes []*entities.Division) {
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].SortOrder != nodes[j].SortOrder {
				return nodes[i].SortOrder < nodes[j].SortOrder
			}
			return nodes[i].ID < nodes[j].ID
		})
	}

	var build func(d *entities.Division, level int, path []string) dto.DivisionTreeNodeDTO
	build = func(d *entities.Division, level int, path []string) dto.DivisionTreeNodeDTO {
		nodePath := make([]string, 0, len(path)+1)
		nodePath = append(nodePath, path...)
		nodePath = append(nodePath, d.Name)

		node := dto.DivisionTreeNodeDTO{
			ID:                d.ID,
			Name:              d.Name,
			ParentDivisionID:  d.ParentDivisionID,
			DivisionManagerID: d.DivisionManagerID,
			SortOrder:         d.SortOrder,
			ColorCode:         d.ColorCode,
			Level:             level,
			Path:              nodePath,
			Children:          []dto.DivisionTreeNodeDTO{},
		}
		children := childrenOf[d.ID]
		orderNodes(children)
		for _, child := range children {
			node.Children = append(node.Children, build(child, level+1, nodePath))
		}
		return node
	}

	orderNodes(roots)
	forest := make([]dto.DivisionTreeNodeDTO, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, build(root, 0, nil))
	}
	return forest
}

// findOwnDivision находит дивизион и проверяет принадлежность компании.
// Чужая компания неотличима от отсутствия записи.
func (s *DivisionService) findOwnDivision(ctx context.Context, companyID, id uint64) (*entities.Division, error) {
	division, err := s.divisionRepo.FindDivision(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Дивизион не найден")
	}
	if err != nil {
		return nil, err
	}
	if division.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("Дивизион не найден")
	}
	return division, nil
}

func (s *DivisionService) FindDivision(ctx context.Context, companyID, id uint64) (*dto.DivisionDTO, error) {
	division, err := s.findOwnDivision(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	result := toDivisionDTO(division)
	return &result, nil
}

// checkNameUnique: имя уникально среди активных дивизионов компании,
// без учёта регистра. excludeID исключает саму запись при обновлении.
func (s *DivisionService) checkNameUnique(ctx context.Context, companyID uint64, name string, excludeID uint64) error {
	existing, err := s.divisionRepo.FindDivisionByName(ctx, companyID, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != excludeID {
		return apperrors.NewConflictError(fmt.Sprintf("Дивизион с именем %q уже существует", name))
	}
	return nil
}

// checkParent проверяет, что родитель существует, активен и принадлежит компании.
func (s *DivisionService) checkParent(ctx context.Context, companyID, parentID uint64) error {
	parent, err := s.divisionRepo.FindDivision(ctx, parentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("Родительский дивизион не найден")
	}
	if err != nil {
		return err
	}
	if parent.CompanyID != companyID {
		return apperrors.NewNotFoundError("Родительский дивизион не найден")
	}
	return nil
}

// checkManager проверяет, что руководитель существует, активен и из той же компании.
func (s *DivisionService) checkManager(ctx context.Context, companyID, managerID uint64) error {
	manager, err := s.userRepo.FindUser(ctx, managerID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError("Руководитель дивизиона не найден")
	}
	if err != nil {
		return err
	}
	if manager.CompanyID != companyID || !manager.IsActive {
		return apperrors.NewNotFoundError("Руководитель дивизиона не найден")
	}
	return nil
}

func (s *DivisionService) CreateDivision(ctx context.Context, companyID uint64, payload dto.CreateDivisionDTO) (*dto.DivisionDTO, error) {
	if err := s.checkNameUnique(ctx, companyID, payload.Name, 0); err != nil {
		return nil, err
	}

	parentID := utils.NullIntToUint64Ptr(payload.ParentDivisionID)
	if parentID != nil {
		if err := s.checkParent(ctx, companyID, *parentID); err != nil {
			return nil, err
		}
	}
	managerID := utils.NullIntToUint64Ptr(payload.DivisionManagerID)
	if managerID != nil {
		if err := s.checkManager(ctx, companyID, *managerID); err != nil {
			return nil, err
		}
	}

	division := entities.Division{
		CompanyID:         companyID,
		Name:              payload.Name,
		ParentDivisionID:  parentID,
		DivisionManagerID: managerID,
		TargetRevenue:     payload.TargetRevenue,
		ColorCode:         utils.NullStringToStrPtr(payload.ColorCode),
		Settings:          payload.Settings,
	}
	created, err := s.divisionRepo.CreateDivision(ctx, division)
	if err != nil {
		return nil, err
	}

	s.invalidateHierarchyCache(ctx, companyID)
	s.logger.Info("дивизион создан",
		zap.Uint64("company_id", companyID),
		zap.Uint64("division_id", created.ID),
		zap.String("name", created.Name))
	result := toDivisionDTO(created)
	return &result, nil
}

func (s *DivisionService) UpdateDivision(ctx context.Context, companyID, id uint64, payload dto.UpdateDivisionDTO) (*dto.DivisionDTO, error) {
	existing, err := s.findOwnDivision(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if payload.Name != nil {
		if err := s.checkNameUnique(ctx, companyID, *payload.Name, id); err != nil {
			return nil, err
		}
	}

	if payload.ParentDivisionID.Valid && payload.ParentDivisionID.Int > 0 {
		newParentID := uint64(payload.ParentDivisionID.Int)
		if newParentID == id {
			return nil, apperrors.NewBusinessRuleError("Дивизион не может быть родителем самому себе")
		}
		if err := s.checkParent(ctx, companyID, newParentID); err != nil {
			return nil, err
		}
		// Перенос под собственного потомка создал бы цикл.
		isDescendant, err := s.divisionRepo.IsDescendant(ctx, id, newParentID)
		if err != nil {
			return nil, err
		}
		if isDescendant {
			return nil, apperrors.NewBusinessRuleError("Нельзя переносить дивизион под его собственного потомка")
		}
	}

	if payload.DivisionManagerID.Valid && payload.DivisionManagerID.Int > 0 {
		if err := s.checkManager(ctx, companyID, uint64(payload.DivisionManagerID.Int)); err != nil {
			return nil, err
		}
	}

	updated, err := s.divisionRepo.UpdateDivision(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Запись исчезла между проверкой и обновлением.
		return nil, apperrors.NewNotFoundError("Дивизион не найден")
	}

	s.invalidateHierarchyCache(ctx, companyID)
	s.logger.Info("дивизион обновлён",
		zap.Uint64("company_id", companyID),
		zap.Uint64("division_id", existing.ID))
	result := toDivisionDTO(updated)
	return &result, nil
}

// DeleteDivision — мягкое удаление. Запрещено, пока на дивизион ссылается
// хотя бы одна живая запись любого вида.
func (s *DivisionService) DeleteDivision(ctx context.Context, companyID, id uint64) error {
	if _, err := s.findOwnDivision(ctx, companyID, id); err != nil {
		return err
	}

	counts, err := s.assignmentRepo.CountDivisionReferences(ctx, id)
	if err != nil {
		return err
	}
	if counts.Total() > 0 {
		return apperrors.NewBusinessRuleError(fmt.Sprintf(
			"Нельзя удалить дивизион: на него ссылаются %d записей, сначала переназначьте их", counts.Total()))
	}

	if err := s.divisionRepo.DeleteDivision(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("Дивизион не найден")
		}
		return err
	}

	s.invalidateHierarchyCache(ctx, companyID)
	s.logger.Info("дивизион удалён", zap.Uint64("company_id", companyID), zap.Uint64("division_id", id))
	return nil
}

// ResolveDivisionID возвращает действительный дивизион назначения:
// явно указанный (после проверки активности и принадлежности компании)
// либо дивизион "General" компании, если цель не указана.
func (s *DivisionService) ResolveDivisionID(ctx context.Context, companyID uint64, divisionID *uint64) (uint64, error) {
	if divisionID != nil {
		division, err := s.findOwnDivision(ctx, companyID, *divisionID)
		if err != nil {
			return 0, err
		}
		return division.ID, nil
	}

	general, err := s.divisionRepo.FindDivisionByName(ctx, companyID, DefaultDivisionName)
	if errors.Is(err, apperrors.ErrNotFound) {
		return 0, apperrors.NewBusinessRuleError(fmt.Sprintf(
			"В компании отсутствует дивизион %q, укажите дивизион назначения явно", DefaultDivisionName))
	}
	if err != nil {
		return 0, err
	}
	return general.ID, nil
}

func toDivisionDTO(d *entities.Division) dto.DivisionDTO {
	return dto.DivisionDTO{
		ID:                d.ID,
		CompanyID:         d.CompanyID,
		Name:              d.Name,
		ParentDivisionID:  d.ParentDivisionID,
		DivisionManagerID: d.DivisionManagerID,
		SortOrder:         d.SortOrder,
		TargetRevenue:     d.TargetRevenue,
		ColorCode:         d.ColorCode,
		Settings:          d.Settings,
		IsActive:          d.IsActive,
		CreatedAt:         formatTimePtr(d.CreatedAt),
		UpdatedAt:         formatTimePtr(d.UpdatedAt),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Local().Format("2006-01-02 15:04:05")
	return &formatted
}
