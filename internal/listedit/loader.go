package listedit

import (
	"context"
	"io"

	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/pkg/pagination"
)

// Backend is the REST surface a list page needs. *apiclient.Client
// satisfies it.
type Backend interface {
	List(ctx context.Context, resource string, q pagination.Query) (*pagination.Page[map[string]any], error)
	Get(ctx context.Context, resource, id string) (map[string]any, error)
	Create(ctx context.Context, resource string, payload any) (map[string]any, error)
	Update(ctx context.Context, resource, id string, payload any) (map[string]any, error)
	Delete(ctx context.Context, resource, id string) error
	Action(ctx context.Context, resource, id, action string, payload any) (map[string]any, error)
	Upload(ctx context.Context, resource string, file apiclient.FilePart, fields map[string]string) (map[string]any, error)
}

var _ Backend = (*apiclient.Client)(nil)

// File is an upload handed to Dispatcher.Upload.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Loader fetches one page of a resource. It never retries and keeps no
// cache.
type Loader struct {
	backend Backend
	res     *Resource
}

// NewLoader creates a Loader.
func NewLoader(backend Backend, res *Resource) *Loader {
	return &Loader{backend: backend, res: res}
}

// Load issues exactly one GET /<resource>?page=&limit=&filters.
func (l *Loader) Load(ctx context.Context, q pagination.Query) (*pagination.Page[Record], error) {
	return l.backend.List(ctx, l.res.Path, q)
}

// Get fetches a single record.
func (l *Loader) Get(ctx context.Context, id string) (Record, error) {
	return l.backend.Get(ctx, l.res.Path, id)
}
