package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"cluster-merge/core/reconcile"
	"cluster-merge/core/storage"
	"cluster-merge/core/table"
	"cluster-merge/feature/merge/sources"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned for table merges when no database is connected.
var ErrNoDatabase = errors.New("database is not connected")

// Service runs merges over inline rows, stored objects and database tables.
type Service struct {
	client   storage.Client
	bucket   string
	logger   *zap.Logger
	db       *gorm.DB
	defaults reconcile.Spec
	cache    *reconcile.PlanCache
}

// NewService creates a new merge service. defaults supplies the columns and
// cache TTL for requests that do not name their own.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, defaults reconcile.Spec) *Service {
	return &Service{
		client:   client,
		bucket:   bucket,
		logger:   logger,
		db:       db,
		defaults: defaults.WithDefaults(),
		cache:    reconcile.NewPlanCache(),
	}
}

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger {
	return s.logger
}

// Spec fills the empty fields of req from the configured defaults.
func (s *Service) Spec(req SpecRequest) reconcile.Spec {
	spec := s.defaults
	if req.EntityColumn != "" {
		spec.EntityColumn = req.EntityColumn
	}
	if len(req.ClusterColumns) > 0 {
		spec.ClusterColumns = req.ClusterColumns
	}
	if req.OutputColumn != "" {
		spec.OutputColumn = req.OutputColumn
	}
	return spec
}

// MergeRows merges rows given inline as a JSON array of objects.
func (s *Service) MergeRows(req InlineRequest) (*InlineResponse, error) {
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("%w: rows are missing", ErrBadRequest)
	}
	t, err := table.Decode(bytes.NewReader(req.Rows), table.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	res, err := reconcile.Merge(t, s.Spec(req.SpecRequest))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := table.Encode(&buf, res.Table, table.FormatJSON); err != nil {
		return nil, err
	}
	return &InlineResponse{Rows: buf.Bytes(), Summary: res.Summary}, nil
}

// MergeObject merges a stored object and writes the result unless req.DryRun
// is set. Plans are cached per object and columns. Dry runs may be answered
// from the cache; a write always reads the object as it is now.
func (s *Service) MergeObject(ctx context.Context, req ObjectRequest) (*Report, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: object name is missing", ErrBadRequest)
	}
	spec := s.Spec(req.SpecRequest)
	src := sources.NewObject(s.client, s.bucket, req.Name, req.Output)

	if !req.DryRun {
		s.cache.Invalidate(spec, src.Name())
	}
	plan, err := s.cache.GetOrBuild(ctx, spec, src)
	if err != nil {
		return nil, err
	}

	applied, err := reconcile.ApplyPlan(ctx, src, plan, reconcile.RunOptions{DryRun: req.DryRun})
	if err != nil {
		return nil, err
	}
	if applied {
		// Any plan over the written object is stale now
		s.cache.Invalidate(spec, sources.ObjectURI(s.bucket, src.Output()))
		s.logger.Info("Merged object written",
			zap.String("object", req.Name),
			zap.String("output", src.Output()),
			zap.Int("groups", plan.Summary.Groups))
	}

	return &Report{Input: src.Name(), Output: src.Output(), Applied: applied, Plan: plan}, nil
}

// CachedObjectPlan returns the cached plan for an object, if one is fresh.
func (s *Service) CachedObjectPlan(name string, req SpecRequest) (*reconcile.Plan, bool) {
	return s.cache.Get(s.Spec(req), sources.ObjectURI(s.bucket, name))
}

// ListObjects returns the names of the stored tables under prefix.
// Objects whose extension is not a known table format are left out.
func (s *Service) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	names, err := storage.ListNames(ctx, s.client, s.bucket, prefix)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(names))
	for _, name := range names {
		if _, err := table.FormatFromPath(name); err == nil {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// MergeTable merges a database table and writes (entity, id) rows into the
// output table unless req.DryRun is set. Table merges are never cached.
func (s *Service) MergeTable(ctx context.Context, req TableRequest) (*Report, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: table name is missing", ErrBadRequest)
	}
	spec := s.Spec(req.SpecRequest)
	src := sources.NewDatabase(s.db, req.Name, spec, req.Output)

	plan, err := reconcile.BuildPlan(ctx, spec, src)
	if err != nil {
		return nil, err
	}
	applied, err := reconcile.ApplyPlan(ctx, src, plan, reconcile.RunOptions{DryRun: req.DryRun})
	if err != nil {
		return nil, err
	}
	return &Report{Input: src.Name(), Output: src.Output(), Applied: applied, Plan: plan}, nil
}
