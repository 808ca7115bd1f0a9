package catalog

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/internal/httpclient"
	"github.com/teranos/epicdash/logger"
)

// Source loads a catalog from somewhere.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
	String() string
}

// HTTPSource fetches the catalog from the ECU.
type HTTPSource struct {
	client *httpclient.Client
	path   string
}

// NewHTTPSource fetches path (usually /variables.json) through client.
func NewHTTPSource(client *httpclient.Client, path string) *HTTPSource {
	return &HTTPSource{client: client, path: path}
}

// Load fetches and parses the catalog.
func (s *HTTPSource) Load(ctx context.Context) (*Catalog, error) {
	data, err := s.client.GetBytes(ctx, s.path)
	if err != nil {
		return nil, errors.WrapCatalogUnavailable(err, "fetch "+s.path)
	}
	return Parse(data)
}

func (s *HTTPSource) String() string {
	return s.client.URL(s.path)
}

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	Path string
}

// Load reads and parses the file.
func (s FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapCatalogUnavailable(err, "read "+s.Path)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.WrapCatalogUnavailable(err, "read "+s.Path)
	}
	return Parse(data)
}

func (s FileSource) String() string {
	return s.Path
}

// LoadOrFallback loads from src and degrades to the fallback table on any
// failure. The returned error, if any, only explains the fallback.
func LoadOrFallback(ctx context.Context, src Source, log *zap.SugaredLogger) (*Catalog, error) {
	c, err := src.Load(ctx)
	if err == nil {
		log.Infow("Variable catalog loaded",
			logger.FieldSource, src.String(),
			logger.FieldCount, c.Len(),
			"readable", len(c.Readable()))
		return c, nil
	}

	log.Warnw("Variable catalog unavailable, using fallback",
		logger.FieldSource, src.String(),
		logger.FieldError, err)
	return Fallback(), err
}
