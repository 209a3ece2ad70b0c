package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ngoma/core"
)

// Material is a study resource, either public or access-controlled by batch.
type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	FileURL     string    `json:"file_url"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	IsPublic    bool      `json:"is_public"`
	BatchIDs    []string  `json:"batch_ids"` // access-control list
	Downloads   int       `json:"downloads"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewMaterial contains information needed to create a Material.
type NewMaterial struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required,oneof=video audio document image other"`
	FileURL     string   `json:"file_url" validate:"required"`
	FileName    string   `json:"file_name"`
	FileSize    int64    `json:"file_size" validate:"omitempty,min=0"`
	IsPublic    bool     `json:"is_public"`
	BatchIDs    []string `json:"batch_ids" validate:"omitempty,dive,uuid4"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// UpdateMaterial defines what information may be provided to modify a Material.
type UpdateMaterial struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,oneof=video audio document image other"`
	IsPublic    *bool    `json:"is_public"`
	BatchIDs    []string `json:"batch_ids" validate:"omitempty,dive,uuid4"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	return validate.Struct(um)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	BatchID  string `query:"batch_id"`
	// Public/batch visibility scope for non-staff callers; set by the handler,
	// not bindable from the query string.
	VisibleToBatches []string `query:"-"`
	PublicOnly       bool     `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
