// Package cmd provides common initialization for the conductor binaries.
package cmd

import (
	"log/slog"

	"github.com/conductorhq/conductor/pkg/actions/httprequest"
	logaction "github.com/conductorhq/conductor/pkg/actions/log"
	"github.com/conductorhq/conductor/pkg/actions/publishevent"
	"github.com/conductorhq/conductor/pkg/actions/transform"
	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/registry"
	"github.com/conductorhq/conductor/pkg/triggers/customer"
	"github.com/conductorhq/conductor/pkg/triggers/delivery"
	"github.com/conductorhq/conductor/pkg/triggers/order"
	"github.com/conductorhq/conductor/pkg/triggers/schedule"
)

// NewCatalog builds the component catalog with every native trigger and
// action registered. The publish_event action needs the bus to re-publish
// events for workflow chaining.
func NewCatalog(logger *slog.Logger, bus eventbus.EventBus) *registry.Registry {
	catalog := registry.NewRegistry(logger)

	catalog.RegisterTrigger(order.NewFactory())
	catalog.RegisterTrigger(delivery.NewFactory())
	catalog.RegisterTrigger(customer.NewFactory())
	catalog.RegisterTrigger(schedule.NewFactory())

	catalog.RegisterAction(logaction.NewFactory())
	catalog.RegisterAction(httprequest.NewFactory())
	catalog.RegisterAction(transform.NewFactory())
	catalog.RegisterAction(publishevent.NewFactory(bus))

	return catalog
}
