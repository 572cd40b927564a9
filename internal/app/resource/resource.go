package resource

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/slok/packrun/internal/log"
	"github.com/slok/packrun/internal/model"
)

// Access is the data access of a resource.
type Access[M any] interface {
	// Query returns the models selected by the query.
	Query(ctx context.Context, q model.Query) ([]M, error)
	// Get returns a model by ID. Malformed IDs return model.ErrNotFound.
	Get(ctx context.Context, id string) (*M, error)
}

// Resource is an API resource backed by a model.
type Resource[M any] interface {
	Access() Access[M]
	// FromModel returns the API representation of a model.
	FromModel(m M) any
	// SupportedFilters maps query params to model fields.
	SupportedFilters() map[string]string
}

// Query params every resource supports, mapped to their query fields.
const (
	ParamID     = "id"
	ParamName   = "name"
	ParamSort   = "sort"
	ParamOffset = "offset"
	ParamLimit  = "limit"
)

var reservedParams = map[string]string{
	ParamID:     "id",
	ParamName:   "name",
	ParamSort:   "order_by",
	ParamOffset: "offset",
	ParamLimit:  "limit",
}

// NotFoundError is returned when a resource can't be identified.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Unable to identify resource with id %q.", e.ID)
}

func (e *NotFoundError) Unwrap() error { return model.ErrNotFound }

// ControllerConfig is the configuration of a resource controller.
type ControllerConfig[M any] struct {
	Resource Resource[M]
	// DefaultSort is used when the request has no sort param.
	DefaultSort []string
	// DefaultLimit is used when the request has no limit param, 0 means no limit.
	DefaultLimit int
	// MaxLimit is the maximum page size, 0 means unbounded.
	MaxLimit int
	Logger   log.Logger
}

func (c *ControllerConfig[M]) defaults() error {
	if c.Resource == nil {
		return fmt.Errorf("resource is required")
	}
	if c.Resource.Access() == nil {
		return fmt.Errorf("resource access is required")
	}
	if c.DefaultLimit < 0 || c.MaxLimit < 0 {
		return fmt.Errorf("limits can't be negative")
	}
	if c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default limit can't be greater than the max limit")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ResourceController"})
	return nil
}

// Controller implements the list and get operations of a resource.
type Controller[M any] struct {
	resource     Resource[M]
	filters      map[string]string
	defaultSort  []string
	defaultLimit int
	maxLimit     int
	logger       log.Logger
}

// NewController returns a new resource controller.
func NewController[M any](cfg ControllerConfig[M]) (*Controller[M], error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Reserved params take precedence over the resource ones.
	filters := maps.Clone(cfg.Resource.SupportedFilters())
	if filters == nil {
		filters = map[string]string{}
	}
	maps.Copy(filters, reservedParams)

	return &Controller[M]{
		resource:     cfg.Resource,
		filters:      filters,
		defaultSort:  cfg.DefaultSort,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logger:       cfg.Logger,
	}, nil
}

// GetAll returns the API representation of the resources selected by the params.
// Params that are not supported are ignored, so are the empty ones.
func (c *Controller[M]) GetAll(ctx context.Context, params map[string]string) ([]any, error) {
	q, err := c.query(params)
	if err != nil {
		return nil, err
	}

	models, err := c.resource.Access().Query(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]any, 0, len(models))
	for _, m := range models {
		items = append(items, c.resource.FromModel(m))
	}

	return items, nil
}

// GetOne returns the API representation of a resource.
func (c *Controller[M]) GetOne(ctx context.Context, id string) (any, error) {
	m, err := c.resource.Access().Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}

	return c.resource.FromModel(*m), nil
}

func (c *Controller[M]) query(params map[string]string) (model.Query, error) {
	q := model.Query{
		Filters: map[string]string{},
		OrderBy: c.defaultSort,
		Limit:   c.defaultLimit,
	}

	if s := params[ParamSort]; s != "" {
		orderBy, err := c.sort(s)
		if err != nil {
			return model.Query{}, err
		}
		q.OrderBy = orderBy
	}

	if s := params[ParamOffset]; s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			return model.Query{}, fmt.Errorf("invalid offset %q: %w", s, model.ErrNotValid)
		}
		q.Offset = offset
	}

	if s := params[ParamLimit]; s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return model.Query{}, fmt.Errorf("invalid limit %q: %w", s, model.ErrNotValid)
		}
		if c.maxLimit > 0 && limit > c.maxLimit {
			return model.Query{}, fmt.Errorf("limit %d specified, maximum value is %d: %w", limit, c.maxLimit, model.ErrNotValid)
		}
		q.Limit = limit
	}

	for param, field := range c.filters {
		switch param {
		case ParamSort, ParamOffset, ParamLimit:
			continue
		}
		if v := params[param]; v != "" {
			q.Filters[field] = v
		}
	}

	return q, nil
}

// sort maps a comma separated list of sort params to query fields keeping the
// direction prefix.
func (c *Controller[M]) sort(s string) ([]string, error) {
	orderBy := []string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		dir := ""
		if strings.HasPrefix(p, "-") {
			dir = "-"
			p = p[1:]
		}

		field, ok := c.filters[p]
		if !ok {
			return nil, fmt.Errorf("unsupported sort field %q: %w", p, model.ErrNotValid)
		}
		orderBy = append(orderBy, dir+field)
	}

	return orderBy, nil
}
