package notification

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
)

// Types
const (
	TypeSchedule  = "schedule"
	TypePayment   = "payment"
	TypeBroadcast = "broadcast"
)

// Meta is free-form metadata attached to a notification; stored as JSONB.
type Meta map[string]interface{}

func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Meta) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("notification.Meta: cannot scan %T", src)
	}
	return json.Unmarshal(b, m)
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Meta      Meta      `json:"meta,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewNotification contains information needed to create a notification for one user.
type NewNotification struct {
	UserID  string `json:"user_id" validate:"required,uuid4"`
	Type    string `json:"type" validate:"required,oneof=schedule payment broadcast"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Meta    Meta   `json:"meta"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	return validate.Struct(nn)
}

// Broadcast contains information needed to fan a notification out to many users.
type Broadcast struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,uuid4"`
	Title   string   `json:"title" validate:"required"`
	Message string   `json:"message" validate:"required"`
	Meta    Meta     `json:"meta"`
}

func (b *Broadcast) Validate(validate *validator.Validate) error {
	b.Title = core.CleanString(b.Title)
	b.Message = core.CleanString(b.Message)
	return validate.Struct(b)
}

type QueryFilter struct {
	UserID string `query:"-"`
	Type   string `query:"type"`
	Unread *bool  `query:"unread"`
}
