package repo

import (
	"context"
	"errors"
	"time"

	"github.com/datadiag/datadiag/internal/payload"
)

var ErrNotFound = errors.New("dataset not found")

type DatasetID string

// Dataset is an uploaded data value held for later runs. The payload
// itself never leaves the process; listings expose only the metadata.
type Dataset struct {
	ID        DatasetID       `json:"id"`
	Name      string          `json:"name"`  // original file name
	Shape     string          `json:"shape"` // payload.Describe output
	Data      payload.Payload `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// DatasetStore is the port for dataset keeping. The handlers only see
// this interface, so another adapter can swap in for the memory store.
type DatasetStore interface {
	Add(ctx context.Context, d *Dataset) error
	Get(ctx context.Context, id DatasetID) (*Dataset, error)
	List(ctx context.Context) ([]*Dataset, error)
}
