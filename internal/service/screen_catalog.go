package service

import (
	"sort"

	"github.com/noah-isme/admin-console/internal/listsync"
	"github.com/noah-isme/admin-console/internal/models"
	"github.com/noah-isme/admin-console/pkg/listclient"
)

// Screen names served by the console.
const (
	ScreenOrders    = "orders"
	ScreenCustomers = "customers"
	ScreenUsers     = "users"
	ScreenRoles     = "roles"
)

// ScreenSpec describes how to build one list screen.
type ScreenSpec struct {
	Name      string
	Title     string
	LiveCount bool
	Build     func(opts listsync.Options) listsync.Screen
}

// ScreenCatalog is the set of screens a session may mount.
type ScreenCatalog struct {
	specs map[string]ScreenSpec
}

// NewScreenCatalog indexes specs by name.
func NewScreenCatalog(specs ...ScreenSpec) *ScreenCatalog {
	catalog := &ScreenCatalog{specs: make(map[string]ScreenSpec, len(specs))}
	for _, spec := range specs {
		catalog.specs[spec.Name] = spec
	}
	return catalog
}

// Lookup returns the spec registered under name.
func (c *ScreenCatalog) Lookup(name string) (ScreenSpec, bool) {
	spec, ok := c.specs[name]
	return spec, ok
}

// Names lists registered screens alphabetically.
func (c *ScreenCatalog) Names() []string {
	names := make([]string, 0, len(c.specs))
	for name := range c.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoteScreen binds a screen to a collection of the remote list service.
func RemoteScreen[T listsync.Item](name, title, path string, client *listclient.Client, liveCount bool) ScreenSpec {
	resource := listclient.NewResource[T](client, path)
	return ScreenSpec{
		Name:      name,
		Title:     title,
		LiveCount: liveCount,
		Build: func(opts listsync.Options) listsync.Screen {
			return listsync.NewController[T](resource, opts)
		},
	}
}

// DefaultCatalog registers the orders, customers, users and roles screens.
// Only the users screen follows the live count.
func DefaultCatalog(client *listclient.Client) *ScreenCatalog {
	return NewScreenCatalog(
		RemoteScreen[models.Order](ScreenOrders, "Orders", "/orders", client, false),
		RemoteScreen[models.Customer](ScreenCustomers, "Customers", "/customers", client, false),
		RemoteScreen[models.User](ScreenUsers, "Users", "/users", client, true),
		RemoteScreen[models.Role](ScreenRoles, "Roles", "/roles", client, false),
	)
}
