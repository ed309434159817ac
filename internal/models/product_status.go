package models

import "slices"

// ProductStatus enumerates product lifecycle states.
type ProductStatus string

const (
	ProductStatusPlanning     ProductStatus = "planning"
	ProductStatusActive       ProductStatus = "active"
	ProductStatusOnHold       ProductStatus = "on-hold"
	ProductStatusCompleted    ProductStatus = "completed"
	ProductStatusCancelled    ProductStatus = "cancelled"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

var ProductStatuses = []ProductStatus{
	ProductStatusPlanning, ProductStatusActive, ProductStatusOnHold, ProductStatusCompleted,
	ProductStatusCancelled, ProductStatusInactive, ProductStatusDiscontinued,
}

func (s ProductStatus) Valid() bool { return slices.Contains(ProductStatuses, s) }

// productTransitions is the strict lifecycle graph. Self transitions are
// always allowed and are not listed.
var productTransitions = map[ProductStatus][]ProductStatus{
	ProductStatusPlanning:     {ProductStatusActive, ProductStatusOnHold, ProductStatusCancelled},
	ProductStatusActive:       {ProductStatusOnHold, ProductStatusCompleted, ProductStatusCancelled, ProductStatusInactive},
	ProductStatusOnHold:       {ProductStatusActive, ProductStatusCancelled, ProductStatusInactive},
	ProductStatusCompleted:    {ProductStatusActive, ProductStatusDiscontinued, ProductStatusInactive},
	ProductStatusCancelled:    {ProductStatusPlanning},
	ProductStatusInactive:     {ProductStatusActive, ProductStatusDiscontinued},
	ProductStatusDiscontinued: {},
}

// TransitionPolicy decides whether a product may move between two statuses.
type TransitionPolicy interface {
	Allowed(from, to ProductStatus) bool
}

// AnyTransition permits every move between valid statuses.
type AnyTransition struct{}

func (AnyTransition) Allowed(from, to ProductStatus) bool { return to.Valid() }

// StrictTransitions enforces the lifecycle graph.
type StrictTransitions struct{}

func (StrictTransitions) Allowed(from, to ProductStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return slices.Contains(productTransitions[from], to)
}
