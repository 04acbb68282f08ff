// Package rbac provides the authorization gates applied per route. Two
// independent policies exist: exact role match and permission-set
// membership. Routes compose zero or more gates after authentication.
package rbac

// Resources gates are declared against.
const (
	ResourceAdmins     = "admins"
	ResourceProducts   = "products"
	ResourceCategories = "categories"
	ResourceBlog       = "blog"
	ResourceOrders     = "orders"
	ResourcePartners   = "partners"
)

// Actions within a resource.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Catalog enumerates every grantable (resource, action) pair. The admins
// module serves this to the management UI and validates grants against it.
func Catalog() map[string][]string {
	actions := []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
	catalog := make(map[string][]string)
	for _, resource := range []string{
		ResourceAdmins,
		ResourceProducts,
		ResourceCategories,
		ResourceBlog,
		ResourceOrders,
		ResourcePartners,
	} {
		catalog[resource] = append([]string(nil), actions...)
	}
	return catalog
}

// Granted reports whether (resource, action) exists in the catalog.
func Granted(resource, action string) bool {
	for _, a := range Catalog()[resource] {
		if a == action {
			return true
		}
	}
	return false
}
