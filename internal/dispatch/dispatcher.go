package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/five82/storefront/internal/mall"
	"github.com/five82/storefront/internal/region"
	"github.com/five82/storefront/internal/state"
	"github.com/five82/storefront/internal/sysconfig"
)

const tracerName = "github.com/five82/storefront/internal/dispatch"

// HomePlacement is the banner placement loaded by Boot.
const HomePlacement = "index"

// Backend is the remote side of every intent. *mall.Client implements it.
type Backend interface {
	mall.Fetcher
}

// ScalarStore is durable local storage for mirrored parameters.
// *prefs.Scalars implements it.
type ScalarStore interface {
	Read(key string) (string, bool)
	Persist(key, value string) error
}

// Options tune a Dispatcher.
type Options struct {
	Logger           *slog.Logger
	RegionExclusions []string
	TracerProvider   trace.TracerProvider
}

// Dispatcher turns intents into fetch, reduce and commit against a Store.
type Dispatcher struct {
	store      *state.Store
	backend    Backend
	scalars    ScalarStore
	logger     *slog.Logger
	tracer     trace.Tracer
	exclusions []string
}

// New returns a dispatcher committing into store. scalars may be nil, in
// which case persist effects are dropped.
func New(store *state.Store, backend Backend, scalars ScalarStore, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	exclusions := opts.RegionExclusions
	if exclusions == nil {
		exclusions = region.DefaultExclusions
	}
	return &Dispatcher{
		store:      store,
		backend:    backend,
		scalars:    scalars,
		logger:     logger,
		tracer:     tp.Tracer(tracerName),
		exclusions: exclusions,
	}
}

// Store returns the store the dispatcher commits into.
func (d *Dispatcher) Store() *state.Store {
	return d.store
}

// LoadBanners fetches the banners for placement and caches them under it.
func (d *Dispatcher) LoadBanners(ctx context.Context, placement string) error {
	return load(ctx, d, "banners", placement,
		func(ctx context.Context) ([]mall.Banner, error) {
			return d.backend.FetchBanners(ctx, placement)
		},
		func(st state.State, items []mall.Banner) state.State {
			st.Config = sysconfig.ApplyBanners(st.Config, placement, items)
			return st
		})
}

// LoadProducts fetches a product list and caches it under filter.Key. A
// category filter without a key is stored under mall.CategoryKey.
func (d *Dispatcher) LoadProducts(ctx context.Context, filter mall.ProductFilter) error {
	key := filter.Key
	if key == "" && filter.CategoryID > 0 {
		key = mall.CategoryKey(filter.CategoryID)
	}
	if key == "" {
		return &FetchFailure{Op: "products", Err: errors.New("product filter has no cache key")}
	}
	filter.Key = key
	return load(ctx, d, "products", key,
		func(ctx context.Context) ([]mall.Product, error) {
			return d.backend.FetchProducts(ctx, filter)
		},
		func(st state.State, items []mall.Product) state.State {
			st.Products = st.Products.Put(key, items)
			return st
		})
}

// LoadCategories replaces the category list.
func (d *Dispatcher) LoadCategories(ctx context.Context) error {
	return load(ctx, d, "categories", "",
		d.backend.FetchCategories,
		func(st state.State, items []mall.Category) state.State {
			st.Categories = items
			return st
		})
}

// LoadVipLevel refreshes the member level.
func (d *Dispatcher) LoadVipLevel(ctx context.Context) error {
	return load(ctx, d, "vipLevel", "",
		d.backend.FetchVipLevel,
		func(st state.State, level int) state.State {
			st.Config = sysconfig.ApplyVipLevel(st.Config, level)
			return st
		})
}

// LoadOrders fetches one page of orders and caches it under the status key.
func (d *Dispatcher) LoadOrders(ctx context.Context, query mall.OrderQuery) error {
	key := query.StatusKey()
	return load(ctx, d, "orders", key,
		func(ctx context.Context) ([]mall.Order, error) {
			return d.backend.FetchOrders(ctx, query)
		},
		func(st state.State, items []mall.Order) state.State {
			st.Orders = st.Orders.Put(key, items)
			return st
		})
}

// LoadRegions fetches one region level and stores its buckets under the
// level's plural key. parentID is ignored for provinces.
func (d *Dispatcher) LoadRegions(ctx context.Context, level region.Level, parentID int64) error {
	if level == region.Province {
		parentID = 0
	} else if parentID <= 0 {
		return &FetchFailure{Op: "regions", Key: level.Plural(), Err: fmt.Errorf("%s need a parent id", level.Plural())}
	}
	return load(ctx, d, "regions", level.Plural(),
		func(ctx context.Context) ([]region.Record, error) {
			return d.backend.FetchRegions(ctx, parentID)
		},
		func(st state.State, records []region.Record) state.State {
			st.Regions = st.Regions.Put(level.Plural(), region.BuildLevel(records, level, d.exclusions))
			return st
		})
}

// LoadSystemParameters replaces the parameter set and then persists the
// mirrored values. A malformed payload keeps the previous slice.
func (d *Dispatcher) LoadSystemParameters(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "dispatch.systemParameters")
	defer span.End()

	raw, err := d.backend.FetchSystemParameters(ctx)
	if err != nil {
		return d.fail(span, "systemParameters", "", err)
	}

	var effects []sysconfig.Effect
	_, err = d.store.TryUpdate(func(st state.State) (state.State, error) {
		next, fx, err := sysconfig.ApplySystemParameters(st.Config, raw)
		if err != nil {
			return st, err
		}
		effects = fx
		st.Config = next
		return st, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn("system parameters rejected", slog.String("error", err.Error()))
		return &FetchFailure{Op: "systemParameters", Err: err}
	}
	span.SetAttributes(attribute.Int("storefront.effects", len(effects)))
	return d.runEffects(effects)
}

// Boot hydrates the mirrored parameters from local storage and then loads
// the vip level, system parameters, home banners and cart concurrently. Each load
// commits on its own; the returned error joins every failure.
func (d *Dispatcher) Boot(ctx context.Context) error {
	if d.scalars != nil {
		d.store.Apply(func(st state.State) state.State {
			st.Config = sysconfig.Hydrate(st.Config, d.scalars)
			return st
		})
	}

	loads := []func(context.Context) error{
		d.LoadVipLevel,
		d.LoadSystemParameters,
		func(ctx context.Context) error { return d.LoadBanners(ctx, HomePlacement) },
		d.LoadCart,
	}
	errs := make([]error, len(loads))
	var g errgroup.Group
	for i, fn := range loads {
		g.Go(func() error {
			errs[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// load runs one fetch inside a span and commits reduce(state, payload) on
// success. On failure the snapshot data is left untouched.
func load[T any](ctx context.Context, d *Dispatcher, op, key string, fetch func(context.Context) (T, error), reduce func(state.State, T) state.State) error {
	ctx, span := d.tracer.Start(ctx, "dispatch."+op, trace.WithAttributes(attribute.String("storefront.key", key)))
	defer span.End()

	payload, err := fetch(ctx)
	if err != nil {
		return d.fail(span, op, key, err)
	}
	d.store.Update(func(st state.State) state.State {
		return reduce(st, payload)
	}, nil)
	return nil
}

func (d *Dispatcher) fail(span trace.Span, op, key string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.store.Update(nil, err)
	d.logger.Warn("fetch failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.Bool("api_error", mall.IsAPIError(err)),
		slog.String("error", err.Error()),
	)
	return &FetchFailure{Op: op, Key: key, Err: err}
}

func (d *Dispatcher) runEffects(effects []sysconfig.Effect) error {
	var errs []error
	for _, fx := range effects {
		switch fx.Kind {
		case sysconfig.EffectPersistScalar:
			if d.scalars == nil {
				continue
			}
			if err := d.scalars.Persist(fx.Key, fx.Value); err != nil {
				d.logger.Error("persist scalar failed",
					slog.String("key", fx.Key),
					slog.String("error", err.Error()),
				)
				errs = append(errs, fmt.Errorf("persist %s: %w", fx.Key, err))
			}
		default:
			d.logger.Warn("unknown effect", slog.String("kind", strconv.Itoa(int(fx.Kind))))
		}
	}
	return errors.Join(errs...)
}
