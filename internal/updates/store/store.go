// Package store persists update records and contract state.
//
// Every backend keeps two regions: "updates", mapping a model identifier to
// its latest record, and "contract", holding the state captured at
// instantiation. Lookups of absent keys return sentinel.ErrNotFound; a second
// write of contract state returns sentinel.ErrConflict.
package store

const (
	// RegionUpdates names the model_id -> Update region.
	RegionUpdates = "updates"
	// RegionContract names the contract state region.
	RegionContract = "contract"
)
