// Package permission models the admin role-permission matrix as capability
// sets: one set of (resource, action) pairs per role.
package permission

import (
	"sort"

	"divyashree/internal/model"
)

// Resource is an admin panel area.
type Resource string

const (
	ResourceDashboard   Resource = "dashboard"
	ResourceProducts    Resource = "products"
	ResourceInventory   Resource = "inventory"
	ResourceOrders      Resource = "orders"
	ResourceUsers       Resource = "users"
	ResourceReviews     Resource = "reviews"
	ResourcePermissions Resource = "permissions"
	ResourceAudit       Resource = "audit"
)

// Action is an operation on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resources and Actions enumerate the full matrix.
var (
	Resources = []Resource{
		ResourceDashboard,
		ResourceProducts,
		ResourceInventory,
		ResourceOrders,
		ResourceUsers,
		ResourceReviews,
		ResourcePermissions,
		ResourceAudit,
	}
	Actions = []Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}
)

// Capability is a single (resource, action) grant.
type Capability struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// Matrix is the nested boolean document form {resource: {action: allowed}}.
type Matrix map[Resource]map[Action]bool

// Set is a capability set with O(1) lookups.
type Set struct {
	caps map[Capability]struct{}
}

// NewSet creates a set holding caps.
func NewSet(caps ...Capability) *Set {
	s := &Set{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		s.Add(c.Resource, c.Action)
	}
	return s
}

// Add grants action on resource. Unknown resources or actions are ignored.
func (s *Set) Add(r Resource, a Action) {
	if !knownResource(r) || !knownAction(a) {
		return
	}
	s.caps[Capability{Resource: r, Action: a}] = struct{}{}
}

// Allows checks whether action on resource is granted.
func (s *Set) Allows(r Resource, a Action) bool {
	if s == nil {
		return false
	}
	_, ok := s.caps[Capability{Resource: r, Action: a}]
	return ok
}

// Size returns the number of grants in the set.
func (s *Set) Size() int {
	if s == nil {
		return 0
	}
	return len(s.caps)
}

// List returns the grants sorted by resource then action.
func (s *Set) List() []Capability {
	out := make([]Capability, 0, s.Size())
	if s == nil {
		return out
	}
	for c := range s.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// Matrix expands the set into the full nested form, every cell present.
func (s *Set) Matrix() Matrix {
	m := make(Matrix, len(Resources))
	for _, r := range Resources {
		row := make(map[Action]bool, len(Actions))
		for _, a := range Actions {
			row[a] = s.Allows(r, a)
		}
		m[r] = row
	}
	return m
}

// FromMatrix builds a set from the nested form, keeping true cells only.
func FromMatrix(m Matrix) *Set {
	s := NewSet()
	for r, row := range m {
		for a, allowed := range row {
			if allowed {
				s.Add(r, a)
			}
		}
	}
	return s
}

// All returns a set granting every capability.
func All() *Set {
	s := NewSet()
	for _, r := range Resources {
		for _, a := range Actions {
			s.Add(r, a)
		}
	}
	return s
}

// RolePermission is the stored matrix of one role.
type RolePermission struct {
	Role        model.Role `json:"role"`
	Permissions Matrix     `json:"permissions"`
	Description string     `json:"description"`
}

// Defaults returns the four seeded role templates.
func Defaults() []RolePermission {
	master := All()
	master = without(master, Capability{ResourcePermissions, ActionCreate}, Capability{ResourcePermissions, ActionDelete})

	admin := NewSet()
	admin.Add(ResourceDashboard, ActionView)
	for _, r := range []Resource{ResourceProducts, ResourceInventory, ResourceOrders, ResourceReviews} {
		for _, a := range Actions {
			admin.Add(r, a)
		}
	}
	admin.Add(ResourceUsers, ActionView)
	admin.Add(ResourceUsers, ActionUpdate)
	admin.Add(ResourceAudit, ActionView)

	sub := NewSet()
	sub.Add(ResourceDashboard, ActionView)
	sub.Add(ResourceProducts, ActionView)
	sub.Add(ResourceProducts, ActionUpdate)
	sub.Add(ResourceInventory, ActionView)
	sub.Add(ResourceInventory, ActionUpdate)
	sub.Add(ResourceOrders, ActionView)
	sub.Add(ResourceOrders, ActionUpdate)
	sub.Add(ResourceReviews, ActionView)

	return []RolePermission{
		{Role: model.RoleSuperAdmin, Permissions: All().Matrix(), Description: "Full access"},
		{Role: model.RoleMasterAdmin, Permissions: master.Matrix(), Description: "Full store management, can edit role permissions"},
		{Role: model.RoleAdmin, Permissions: admin.Matrix(), Description: "Catalogue, inventory, orders and reviews"},
		{Role: model.RoleSubAdmin, Permissions: sub.Matrix(), Description: "Day to day order and stock handling"},
	}
}

func without(s *Set, caps ...Capability) *Set {
	out := NewSet()
	drop := NewSet(caps...)
	for _, c := range s.List() {
		if !drop.Allows(c.Resource, c.Action) {
			out.Add(c.Resource, c.Action)
		}
	}
	return out
}

func knownResource(r Resource) bool {
	for _, v := range Resources {
		if v == r {
			return true
		}
	}
	return false
}

func knownAction(a Action) bool {
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}
