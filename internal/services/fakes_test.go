package services

import (
	"context"
	"strings"
	"time"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	"crm-system/internal/repositories"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/types"
)

// Фейки репозиториев для модульных тестов сервисов: данные в памяти,
// без БД. Поведение повторяет контракт реальных репозиториев.

type fakeDivisionRepo struct {
	divisions map[uint64]*entities.Division
	// descendants[a] — множество потомков a (без самого a).
	descendants map[uint64]map[uint64]bool
	nextID      uint64
}

func newFakeDivisionRepo() *fakeDivisionRepo {
	return &fakeDivisionRepo{
		divisions:   make(map[uint64]*entities.Division),
		descendants: make(map[uint64]map[uint64]bool),
		nextID:      1,
	}
}

func (f *fakeDivisionRepo) add(companyID uint64, name string, parentID *uint64) *entities.Division {
	d := &entities.Division{
		ID:               f.nextID,
		CompanyID:        companyID,
		Name:             name,
		ParentDivisionID: parentID,
		SortOrder:        int(f.nextID),
		IsActive:         true,
	}
	f.nextID++
	f.divisions[d.ID] = d
	if parentID != nil {
		for ancestorID := range f.divisions {
			if ancestorID == d.ID {
				continue
			}
			if ancestorID == *parentID || f.isDesc(ancestorID, *parentID) {
				f.markDescendant(ancestorID, d.ID)
			}
		}
	}
	return d
}

func (f *fakeDivisionRepo) markDescendant(ancestorID, descendantID uint64) {
	if f.descendants[ancestorID] == nil {
		f.descendants[ancestorID] = make(map[uint64]bool)
	}
	f.descendants[ancestorID][descendantID] = true
}

func (f *fakeDivisionRepo) isDesc(ancestorID, descendantID uint64) bool {
	return f.descendants[ancestorID][descendantID]
}

func (f *fakeDivisionRepo) GetDivisions(_ context.Context, companyID uint64, _ types.Filter) ([]entities.Division, uint64, error) {
	result := make([]entities.Division, 0)
	for _, d := range f.divisions {
		if d.CompanyID == companyID && d.IsActive {
			result = append(result, *d)
		}
	}
	return result, uint64(len(result)), nil
}

func (f *fakeDivisionRepo) GetHierarchy(_ context.Context, companyID uint64) ([]entities.Division, error) {
	result := make([]entities.Division, 0)
	for id := uint64(1); id < f.nextID; id++ {
		if d, ok := f.divisions[id]; ok && d.CompanyID == companyID && d.IsActive {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (f *fakeDivisionRepo) FindDivision(_ context.Context, id uint64) (*entities.Division, error) {
	d, ok := f.divisions[id]
	if !ok || !d.IsActive {
		return nil, apperrors.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDivisionRepo) FindDivisionByName(_ context.Context, companyID uint64, name string) (*entities.Division, error) {
	for _, d := range f.divisions {
		if d.CompanyID == companyID && d.IsActive && strings.EqualFold(d.Name, name) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeDivisionRepo) IsDescendant(_ context.Context, ancestorID, descendantID uint64) (bool, error) {
	return f.isDesc(ancestorID, descendantID), nil
}

func (f *fakeDivisionRepo) CreateDivision(_ context.Context, division entities.Division) (*entities.Division, error) {
	created := f.add(division.CompanyID, division.Name, division.ParentDivisionID)
	created.DivisionManagerID = division.DivisionManagerID
	created.TargetRevenue = division.TargetRevenue
	created.ColorCode = division.ColorCode
	created.Settings = division.Settings
	copied := *created
	return &copied, nil
}

func (f *fakeDivisionRepo) CreateDivisionInTx(ctx context.Context, _ repositories.Querier, division entities.Division) (*entities.Division, error) {
	return f.CreateDivision(ctx, division)
}

func (f *fakeDivisionRepo) UpdateDivision(_ context.Context, id uint64, payload dto.UpdateDivisionDTO) (*entities.Division, error) {
	d, ok := f.divisions[id]
	if !ok || !d.IsActive {
		return nil, nil
	}
	if payload.Name != nil {
		d.Name = *payload.Name
	}
	if payload.ParentDivisionID.Valid {
		if payload.ParentDivisionID.Int > 0 {
			v := uint64(payload.ParentDivisionID.Int)
			d.ParentDivisionID = &v
		} else {
			d.ParentDivisionID = nil
		}
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDivisionRepo) DeleteDivision(_ context.Context, id uint64) error {
	d, ok := f.divisions[id]
	if !ok || !d.IsActive {
		return apperrors.ErrNotFound
	}
	d.IsActive = false
	return nil
}

type fakeAssignmentRepo struct {
	refs   map[entities.EntityKind]map[uint64]*entities.EntityRef
	counts map[uint64]entities.DivisionRefCounts
	// failOn[kind][id] — reassign вернёт эту ошибку.
	failOn map[entities.EntityKind]map[uint64]error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	f := &fakeAssignmentRepo{
		refs:   make(map[entities.EntityKind]map[uint64]*entities.EntityRef),
		counts: make(map[uint64]entities.DivisionRefCounts),
		failOn: make(map[entities.EntityKind]map[uint64]error),
	}
	for _, kind := range []entities.EntityKind{
		entities.EntityKindUser, entities.EntityKindContact, entities.EntityKindProperty,
		entities.EntityKindOpportunity, entities.EntityKindProject,
	} {
		f.refs[kind] = make(map[uint64]*entities.EntityRef)
		f.failOn[kind] = make(map[uint64]error)
	}
	return f
}

func (f *fakeAssignmentRepo) addRef(kind entities.EntityKind, id, companyID uint64, divisionID *uint64) {
	f.refs[kind][id] = &entities.EntityRef{ID: id, CompanyID: companyID, DivisionID: divisionID}
}

func (f *fakeAssignmentRepo) findRef(kind entities.EntityKind, id uint64) (*entities.EntityRef, error) {
	ref, ok := f.refs[kind][id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *ref
	return &copied, nil
}

func (f *fakeAssignmentRepo) reassign(kind entities.EntityKind, id, divisionID uint64) (bool, error) {
	if err := f.failOn[kind][id]; err != nil {
		return false, err
	}
	ref, ok := f.refs[kind][id]
	if !ok {
		return false, nil
	}
	ref.DivisionID = &divisionID
	return true, nil
}

func (f *fakeAssignmentRepo) FindUserRef(_ context.Context, id uint64) (*entities.EntityRef, error) {
	return f.findRef(entities.EntityKindUser, id)
}
func (f *fakeAssignmentRepo) FindContactRef(_ context.Context, id uint64) (*entities.EntityRef, error) {
	return f.findRef(entities.EntityKindContact, id)
}
func (f *fakeAssignmentRepo) FindPropertyRef(_ context.Context, id uint64) (*entities.EntityRef, error) {
	return f.findRef(entities.EntityKindProperty, id)
}
func (f *fakeAssignmentRepo) FindOpportunityRef(_ context.Context, id uint64) (*entities.EntityRef, error) {
	return f.findRef(entities.EntityKindOpportunity, id)
}
func (f *fakeAssignmentRepo) FindProjectRef(_ context.Context, id uint64) (*entities.EntityRef, error) {
	return f.findRef(entities.EntityKindProject, id)
}

func (f *fakeAssignmentRepo) ReassignUser(_ context.Context, id, divisionID uint64) (bool, error) {
	return f.reassign(entities.EntityKindUser, id, divisionID)
}
func (f *fakeAssignmentRepo) ReassignContact(_ context.Context, id, divisionID uint64) (bool, error) {
	return f.reassign(entities.EntityKindContact, id, divisionID)
}
func (f *fakeAssignmentRepo) ReassignProperty(_ context.Context, id, divisionID uint64) (bool, error) {
	return f.reassign(entities.EntityKindProperty, id, divisionID)
}
func (f *fakeAssignmentRepo) ReassignOpportunity(_ context.Context, id, divisionID uint64) (bool, error) {
	return f.reassign(entities.EntityKindOpportunity, id, divisionID)
}
func (f *fakeAssignmentRepo) ReassignProject(_ context.Context, id, divisionID uint64) (bool, error) {
	return f.reassign(entities.EntityKindProject, id, divisionID)
}

func (f *fakeAssignmentRepo) CountDivisionReferences(_ context.Context, divisionID uint64) (entities.DivisionRefCounts, error) {
	return f.counts[divisionID], nil
}

func countsWith(contacts int64) entities.DivisionRefCounts {
	return entities.DivisionRefCounts{Contacts: contacts}
}

type fakeUserRepo struct {
	users map[uint64]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*entities.User)}
}

func (f *fakeUserRepo) add(id, companyID uint64, fio string, active bool) {
	f.users[id] = &entities.User{ID: id, CompanyID: companyID, Fio: fio, IsActive: active}
}

func (f *fakeUserRepo) FindUser(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) CreateUserInTx(_ context.Context, _ repositories.Querier, user entities.User) (*entities.User, error) {
	user.ID = uint64(len(f.users) + 1)
	user.IsActive = true
	f.users[user.ID] = &user
	copied := user
	return &copied, nil
}

type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}
