package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core/material"
)

const materialCols = `id, title, description, category, file_url, file_name, file_size,
is_public, batch_ids, downloads, uploaded_by, created_at, updated_at`

type materialRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	FileURL     string         `db:"file_url"`
	FileName    string         `db:"file_name"`
	FileSize    int64          `db:"file_size"`
	IsPublic    bool           `db:"is_public"`
	BatchIDs    pq.StringArray `db:"batch_ids"`
	Downloads   int            `db:"downloads"`
	UploadedBy  string         `db:"uploaded_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row materialRow) toMaterial() material.Material {
	return material.Material{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Category:    row.Category,
		FileURL:     row.FileURL,
		FileName:    row.FileName,
		FileSize:    row.FileSize,
		IsPublic:    row.IsPublic,
		BatchIDs:    row.BatchIDs,
		Downloads:   row.Downloads,
		UploadedBy:  row.UploadedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.BatchIDs == nil {
		m.BatchIDs = []string{}
	}

	q := `INSERT INTO material (` + materialCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.db.ExecContext(ctx, q,
		m.ID, m.Title, m.Description, m.Category, m.FileURL, m.FileName, m.FileSize,
		m.IsPublic, pq.StringArray(m.BatchIDs), m.Downloads, m.UploadedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "creating material")
	}
	return m, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	var row materialRow
	q := `SELECT ` + materialCols + ` FROM material WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return material.Material{}, notFound(err, material.ErrNotFound, "getting material")
	}
	return row.toMaterial(), nil
}

func (repo *materialRepository) FilterMaterials(ctx context.Context, filter material.QueryFilter) ([]material.Material, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = %s", arg(filter.Category)))
	}
	if filter.BatchID != "" {
		where = append(where, fmt.Sprintf("%s = ANY(batch_ids)", arg(filter.BatchID)))
	}
	if filter.PublicOnly {
		where = append(where, "is_public")
	} else if len(filter.VisibleToBatches) > 0 {
		where = append(where, fmt.Sprintf("(is_public OR batch_ids && %s)", arg(pq.StringArray(filter.VisibleToBatches))))
	}

	q := `SELECT ` + materialCols + ` FROM material`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering materials")
	}
	materials := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		materials = append(materials, row.toMaterial())
	}
	return materials, nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material, isPublic *bool) (material.Material, error) {
	q := `UPDATE material SET title = $2, description = $3, category = $4, batch_ids = $5,
updated_at = $6, is_public = COALESCE($7, is_public)
WHERE id = $1`

	var public interface{}
	if isPublic != nil {
		public = *isPublic
	}
	res, err := repo.db.ExecContext(ctx, q,
		m.ID, m.Title, m.Description, m.Category, pq.StringArray(m.BatchIDs), m.UpdatedAt, public,
	)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return repo.GetMaterialByID(ctx, m.ID)
}

func (repo *materialRepository) IncrementDownloads(ctx context.Context, id string) (material.Material, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE material SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "incrementing downloads")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return material.Material{}, material.ErrNotFound
	}
	return repo.GetMaterialByID(ctx, id)
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM material WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting materials")
}
