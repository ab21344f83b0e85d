package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"hifi-remote/internal/domain/model"
	"hifi-remote/internal/ports"
)

const catalogConcurrency = 4

// CatalogEntry is a device and the command names it accepts.
type CatalogEntry struct {
	Name     string   `json:"name"`
	Protocol string   `json:"protocol,omitempty"`
	Commands []string `json:"commands"`
}

// Catalog lists the devices known to the bridge for the binding pickers.
type Catalog struct {
	api    ports.DeviceAPIPort
	logger *slog.Logger
}

func NewCatalog(api ports.DeviceAPIPort, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{api: api, logger: logger}
}

// List fetches every device descriptor. A device whose detail cannot be read
// is listed with no commands.
func (c *Catalog) List(ctx context.Context) ([]CatalogEntry, error) {
	if !c.api.IsConfigured() {
		return nil, model.ErrNotConfigured
	}
	devices, err := c.api.Devices(ctx)
	if err != nil {
		return nil, err
	}
	names := lo.Keys(devices)
	sort.Strings(names)

	entries := make([]CatalogEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)
	for i, name := range names {
		entries[i] = CatalogEntry{Name: name, Commands: []string{}}
		g.Go(func() error {
			d, err := c.api.Device(gctx, name)
			if err != nil {
				c.logger.Warn("failed to fetch device", "device", name, "error", err)
				return nil
			}
			entries[i].Protocol = d.Protocol
			entries[i].Commands = lo.Uniq(d.Commands())
			return nil
		})
	}
	_ = g.Wait()
	return entries, nil
}

// Commands returns the command names of one device.
func (c *Catalog) Commands(ctx context.Context, device string) ([]string, error) {
	if !c.api.IsConfigured() {
		return nil, model.ErrNotConfigured
	}
	d, err := c.api.Device(ctx, device)
	if err != nil {
		return nil, err
	}
	return d.Commands(), nil
}
