package merge

import (
	"cluster-merge/core/logger"
	"cluster-merge/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for merges.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the merge routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/merge")
	group.Post("/", h.HandleMergeRows)
	group.Get("/objects", h.HandleListObjects)
	group.Post("/objects/*", h.HandleMergeObject)
	group.Get("/objects/*", h.HandleGetObjectPlan)
	group.Post("/tables/:name", h.HandleMergeTable)
}

// specFromQuery reads column overrides from the query string:
// ?entity=address&columns=id_1,id_2&output_column=id
func specFromQuery(c *fiber.Ctx) SpecRequest {
	return SpecRequest{
		EntityColumn:   c.Query("entity"),
		ClusterColumns: reconcile.SplitColumns(c.Query("columns")),
		OutputColumn:   c.Query("output_column"),
	}
}

func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleMergeRows merges rows sent in the request body.
// Body: {"entity_column": "...", "cluster_columns": [...], "output_column": "...", "rows": [...]}
func (h *Handler) HandleMergeRows(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.Logger(), c)

	var req InlineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	resp, err := h.service.MergeRows(req)
	if err != nil {
		return h.fail(c, l, "Inline merge failed", err)
	}

	l.Info("Inline merge completed",
		zap.Int("rows", resp.Summary.Rows),
		zap.Int("groups", resp.Summary.Groups),
		zap.Int("skipped", resp.Summary.SkippedValues))
	return c.JSON(resp)
}

// HandleListObjects lists the stored tables.
// Query: ?prefix=daily/
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.Logger(), c)

	names, err := h.service.ListObjects(c.Context(), c.Query("prefix"))
	if err != nil {
		return h.fail(c, l, "Listing objects failed", err)
	}
	return c.JSON(fiber.Map{"objects": names, "count": len(names)})
}

// HandleMergeObject merges a stored object and writes the result next to it.
// Query: column overrides, ?output=<object> and ?dry_run=true
func (h *Handler) HandleMergeObject(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.Logger(), c)
	req := ObjectRequest{
		SpecRequest: specFromQuery(c),
		Name:        c.Params("*"),
		Output:      c.Query("output"),
		DryRun:      c.QueryBool("dry_run"),
	}
	l = l.With(zap.String("object", req.Name), zap.Bool("dry_run", req.DryRun))

	report, err := h.service.MergeObject(c.Context(), req)
	if err != nil {
		return h.fail(c, l, "Object merge failed", err)
	}

	l.Info("Object merge completed", zap.Bool("applied", report.Applied), zap.String("duration", report.Plan.Duration))
	return c.JSON(report)
}

// HandleGetObjectPlan returns the cached merge plan of an object.
func (h *Handler) HandleGetObjectPlan(c *fiber.Ctx) error {
	name := c.Params("*")
	plan, ok := h.service.CachedObjectPlan(name, specFromQuery(c))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no cached merge for " + name})
	}
	return c.JSON(plan)
}

// HandleMergeTable merges a database table.
// Query: column overrides, ?output=<table> and ?dry_run=true
func (h *Handler) HandleMergeTable(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.Logger(), c)
	req := TableRequest{
		SpecRequest: specFromQuery(c),
		Name:        c.Params("name"),
		Output:      c.Query("output"),
		DryRun:      c.QueryBool("dry_run"),
	}
	l = l.With(zap.String("table", req.Name), zap.Bool("dry_run", req.DryRun))

	report, err := h.service.MergeTable(c.Context(), req)
	if err != nil {
		return h.fail(c, l, "Table merge failed", err)
	}

	l.Info("Table merge completed", zap.Bool("applied", report.Applied), zap.String("duration", report.Plan.Duration))
	return c.JSON(report)
}
