package models

import dErrors "secureupdate/pkg/domain-errors"

// Update describes one content update published for a model.
//
// Invariants:
//   - ModelID is non-empty and compared case-sensitively
//   - every other field is opaque and stored exactly as supplied
//
// The registry keeps at most one Update per ModelID; a newer write replaces
// the older record.
type Update struct {
	ModelID       string `json:"model_id"`
	Key           string `json:"key"`
	Checksum      string `json:"checksum"`
	CID           string `json:"cid"`
	UpdateVersion string `json:"update_version"`
	IV            string `json:"iv"`
	Tag           string `json:"tag"`
	Encryption    string `json:"encryption"`
}

// AddUpdateRequest carries the fields of an AddUpdate call.
type AddUpdateRequest struct {
	ModelID       string `json:"model_id"`
	Key           string `json:"key"`
	Checksum      string `json:"checksum"`
	CID           string `json:"cid"`
	UpdateVersion string `json:"update_version"`
	IV            string `json:"iv"`
	Tag           string `json:"tag"`
	Encryption    string `json:"encryption"`
}

// Validate checks the request shape. Only the model identifier is
// constrained; the remaining fields are opaque.
func (r *AddUpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "add_update message is required")
	}
	if r.ModelID == "" {
		return dErrors.New(dErrors.CodeValidation, "model_id is required")
	}
	return nil
}

// NewUpdate builds the candidate record from the request without altering
// any field.
func NewUpdate(req AddUpdateRequest) *Update {
	return &Update{
		ModelID:       req.ModelID,
		Key:           req.Key,
		Checksum:      req.Checksum,
		CID:           req.CID,
		UpdateVersion: req.UpdateVersion,
		IV:            req.IV,
		Tag:           req.Tag,
		Encryption:    req.Encryption,
	}
}

// RequireModelID validates a model identifier used as a lookup key.
func RequireModelID(modelID string) error {
	if modelID == "" {
		return dErrors.New(dErrors.CodeValidation, "model_id is required")
	}
	return nil
}
