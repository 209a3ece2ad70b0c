package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/ngoma/core/material"
)

type materialRepository struct {
	db *DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.BatchIDs == nil {
		m.BatchIDs = []string{}
	}
	repo.db.materials[m.ID] = &m
	return m, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.materials[id]; ok {
		return *m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) FilterMaterials(ctx context.Context, filter material.QueryFilter) ([]material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	materials := make([]material.Material, 0)
	for _, m := range repo.db.materials {
		if matchesMaterialFilter(*m, filter) {
			materials = append(materials, *m)
		}
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].CreatedAt.After(materials[j].CreatedAt) })
	return materials, nil
}

func matchesMaterialFilter(m material.Material, filter material.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			return false
		}
	}
	if filter.Category != "" && m.Category != filter.Category {
		return false
	}
	if filter.BatchID != "" {
		var found bool
		for _, id := range m.BatchIDs {
			if id == filter.BatchID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if filter.PublicOnly {
		return m.IsPublic
	}
	if len(filter.VisibleToBatches) > 0 && !m.IsPublic {
		var visible bool
		for _, id := range m.BatchIDs {
			for _, allowed := range filter.VisibleToBatches {
				if id == allowed {
					visible = true
				}
			}
		}
		if !visible {
			return false
		}
	}
	return true
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material, isPublic *bool) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.materials[m.ID]
	if !ok {
		return material.Material{}, material.ErrNotFound
	}
	orig.Title = m.Title
	orig.Description = m.Description
	orig.Category = m.Category
	orig.BatchIDs = m.BatchIDs
	orig.UpdatedAt = m.UpdatedAt
	if isPublic != nil {
		orig.IsPublic = *isPublic
	}
	return *orig, nil
}

func (repo *materialRepository) IncrementDownloads(ctx context.Context, id string) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m, ok := repo.db.materials[id]
	if !ok {
		return material.Material{}, material.ErrNotFound
	}
	m.Downloads++
	return *m, nil
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.materials, id)
	}
	return nil
}
