// Package registry holds the static catalog of trigger and action types.
// The registry is built once at startup, passed by reference into the
// engine, and read-only afterwards.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/protocol"
)

type Registry struct {
	logger           *slog.Logger
	triggerFactories map[string]protocol.TriggerFactory
	actionFactories  map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:           logger,
		triggerFactories: make(map[string]protocol.TriggerFactory),
		actionFactories:  make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterTrigger(factory protocol.TriggerFactory) {
	r.triggerFactories[factory.ID()] = factory
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

func (r *Registry) HasTrigger(triggerType string) bool {
	_, ok := r.triggerFactories[triggerType]

	return ok
}

func (r *Registry) HasAction(actionType string) bool {
	_, ok := r.actionFactories[actionType]

	return ok
}

// CreateTrigger resolves a trigger type to a concrete instance.
func (r *Registry) CreateTrigger(triggerType string, config map[string]any) (protocol.Trigger, error) {
	factory, ok := r.triggerFactories[triggerType]
	if !ok {
		return nil, &UnknownTriggerError{Type: triggerType}
	}

	return factory.Create(config)
}

// CreateAction resolves an action type to a concrete instance.
func (r *Registry) CreateAction(actionType string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, &UnknownActionError{Type: actionType}
	}

	return factory.Create(config)
}

// TriggerFactory returns the factory for a trigger type.
func (r *Registry) TriggerFactory(triggerType string) (protocol.TriggerFactory, error) {
	factory, ok := r.triggerFactories[triggerType]
	if !ok {
		return nil, &UnknownTriggerError{Type: triggerType}
	}

	return factory, nil
}

// TriggerComponents lists the trigger descriptors for the editor palette,
// sorted by type.
func (r *Registry) TriggerComponents() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(r.triggerFactories))

	for _, factory := range r.triggerFactories {
		components = append(components, &models.RegisteredComponent{
			Type:        factory.ID(),
			Label:       factory.Label(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Type < components[j].Type })

	return components
}

// ActionComponents lists the action descriptors for the editor palette,
// sorted by type.
func (r *Registry) ActionComponents() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(r.actionFactories))

	for _, factory := range r.actionFactories {
		components = append(components, &models.RegisteredComponent{
			Type:               factory.ID(),
			Label:              factory.Label(),
			Description:        factory.Description(),
			Schema:             factory.Schema(),
			SupportsSimulation: factory.SupportsSimulation(),
		})
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Type < components[j].Type })

	return components
}

// ValidateNodeConfig checks a node's config against the JSON schema declared
// by its catalog entry. Nodes whose type carries no schema always pass.
func (r *Registry) ValidateNodeConfig(kind models.NodeKind, nodeType string, config map[string]any) error {
	var schema *models.JSONSchema

	switch kind {
	case models.NodeKindTrigger:
		factory, ok := r.triggerFactories[nodeType]
		if !ok {
			return &UnknownTriggerError{Type: nodeType}
		}

		schema = factory.Schema()
	case models.NodeKindAction:
		factory, ok := r.actionFactories[nodeType]
		if !ok {
			return &UnknownActionError{Type: nodeType}
		}

		schema = factory.Schema()
	case models.NodeKindCondition:
		return nil
	}

	if schema == nil {
		return nil
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to encode schema for type %q: %w", nodeType, err)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for type %q: %w", nodeType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid config for type %q: %s", nodeType, strings.Join(details, "; "))
	}

	return nil
}

// HealthCheck reports whether the catalog has any registered components.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.triggerFactories) == 0 && len(r.actionFactories) == 0 {
		return "catalog is empty", false
	}

	return fmt.Sprintf("%d trigger(s), %d action(s)", len(r.triggerFactories), len(r.actionFactories)), true
}
