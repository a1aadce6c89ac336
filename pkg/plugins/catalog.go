package plugins

import (
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/registry"
)

// CatalogTargetPrefix marks targets served by a Catalog.
const CatalogTargetPrefix = "catalog:"

type catalogItem struct {
	entry  EntryPoint
	plugin Plugin
}

// Catalog holds plugins compiled into the binary. It advertises them as
// entry points and loads them by target.
type Catalog struct {
	byName   registry.Registry[catalogItem]
	byTarget registry.Registry[string]
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName:   registry.New[catalogItem](),
		byTarget: registry.New[string](),
	}
}

// Install adds p under ep. Group defaults to Group and Target to
// "catalog:<name>".
func (c *Catalog) Install(ep EntryPoint, p Plugin) error {
	if p == nil {
		return errors.New(errors.ErrInvalidInput, "catalog plugin is nil").WithDetail("id", ep.Name)
	}

	ep.Name = NormalizeID(ep.Name)
	if !ValidID(ep.Name) {
		return errors.Newf(errors.ErrInvalidInput, "invalid plugin id %q", ep.Name).WithDetail("id", ep.Name)
	}
	if ep.Group == "" {
		ep.Group = Group
	}
	if ep.Target == "" {
		ep.Target = CatalogTargetPrefix + ep.Name
	}

	if c.byTarget.Has(ep.Target) {
		return errors.Newf(errors.ErrAlreadyExists, "catalog target %q is already installed", ep.Target).
			WithDetail("target", ep.Target)
	}
	if err := c.byName.Register(ep.Name, catalogItem{entry: ep, plugin: p}); err != nil {
		return err
	}
	return c.byTarget.Register(ep.Target, ep.Name)
}

// MustInstall is Install that panics, for package-level catalogs.
func (c *Catalog) MustInstall(ep EntryPoint, p Plugin) {
	if err := c.Install(ep, p); err != nil {
		panic(err)
	}
}

// EntryPoints implements EntryPointSource, sorted by name.
func (c *Catalog) EntryPoints(group string) ([]EntryPoint, []Skip, error) {
	var eps []EntryPoint
	for _, e := range c.byName.Entries() {
		if e.Item.entry.Group == group {
			eps = append(eps, e.Item.entry)
		}
	}
	return eps, nil, nil
}

// Load implements Loader for targets installed in the catalog.
func (c *Catalog) Load(d Descriptor) (Plugin, error) {
	name, err := c.byTarget.Get(d.ImportTarget)
	if err != nil {
		return nil, errors.Newf(errors.ErrNotFound, "target %q is not in the catalog", d.ImportTarget).
			WithDetail("target", d.ImportTarget)
	}
	item, err := c.byName.Get(name)
	if err != nil {
		return nil, err
	}
	return item.plugin, nil
}
