package material

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/batch"
	"github.com/trezcool/ngoma/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("material not found")
	ErrAccessDenied = errors.New("no access to this material")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		FilterMaterials(ctx context.Context, filter QueryFilter) ([]Material, error)
		UpdateMaterial(ctx context.Context, m Material, isPublic *bool) (Material, error)
		// IncrementDownloads bumps the download counter atomically.
		IncrementDownloads(ctx context.Context, id string) (Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, uploadedBy string, nm NewMaterial) (Material, error)
		GetByID(ctx context.Context, id string) (Material, error)
		// FilterFor scopes results to what the user may see: staff see all,
		// students see public materials plus those ACL'd to their batches.
		FilterFor(ctx context.Context, usr user.User, filter QueryFilter) ([]Material, error)
		Update(ctx context.Context, id string, um UpdateMaterial) (Material, error)
		Delete(ctx context.Context, ids ...string) error
		// Download checks access and increments the download counter.
		Download(ctx context.Context, usr user.User, id string) (Material, error)
	}

	service struct {
		repo    Repository
		batches batch.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, batches batch.Repository) Service {
	return &service{
		repo:    repo,
		batches: batches,
	}
}

func (svc *service) Create(ctx context.Context, uploadedBy string, nm NewMaterial) (Material, error) {
	now := time.Now().UTC()
	m := Material{
		Title:       nm.Title,
		Description: nm.Description,
		Category:    nm.Category,
		FileURL:     nm.FileURL,
		FileName:    nm.FileName,
		FileSize:    nm.FileSize,
		IsPublic:    nm.IsPublic,
		BatchIDs:    nm.BatchIDs,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMaterial(ctx, m)
}

func (svc *service) GetByID(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

func (svc *service) FilterFor(ctx context.Context, usr user.User, filter QueryFilter) ([]Material, error) {
	if usr.IsStudent() {
		batchIDs, err := svc.studentBatchIDs(ctx, usr.ID)
		if err != nil {
			return nil, err
		}
		filter.VisibleToBatches = batchIDs
		filter.PublicOnly = len(batchIDs) == 0
	}
	return svc.repo.FilterMaterials(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	m, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}

	if um.Title != "" {
		m.Title = um.Title
	}
	if um.Description != "" {
		m.Description = um.Description
	}
	if um.Category != "" {
		m.Category = um.Category
	}
	if um.BatchIDs != nil {
		m.BatchIDs = um.BatchIDs
	}
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMaterial(ctx, m, um.IsPublic)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteMaterialsByID(ctx, ids...)
}

func (svc *service) Download(ctx context.Context, usr user.User, id string) (Material, error) {
	m, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}

	if !m.IsPublic && usr.IsStudent() {
		batchIDs, err := svc.studentBatchIDs(ctx, usr.ID)
		if err != nil {
			return Material{}, err
		}
		if !intersects(m.BatchIDs, batchIDs) {
			return Material{}, ErrAccessDenied
		}
	}
	return svc.repo.IncrementDownloads(ctx, m.ID)
}

func (svc *service) studentBatchIDs(ctx context.Context, studentID string) ([]string, error) {
	bs, err := svc.batches.FilterBatches(ctx, batch.QueryFilter{StudentID: studentID})
	if err != nil {
		return nil, errors.Wrap(err, "filtering student batches")
	}
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
