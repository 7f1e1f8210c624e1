package models

import dErrors "secureupdate/pkg/domain-errors"

// InstantiateMsg is the body of an Instantiate call. It carries no fields;
// the admin is whoever sends it.
type InstantiateMsg struct{}

func (m *InstantiateMsg) Validate() error {
	return nil
}

// ExecuteMsg selects one mutating call. Exactly one variant is set.
type ExecuteMsg struct {
	AddUpdate *AddUpdateRequest `json:"add_update,omitempty"`
}

func (m *ExecuteMsg) Validate() error {
	if m.AddUpdate == nil {
		return dErrors.New(dErrors.CodeBadRequest, "execute message must name a known variant")
	}
	return m.AddUpdate.Validate()
}

// GetUpdateQuery asks for the record stored under ModelID.
type GetUpdateQuery struct {
	ModelID string `json:"model_id"`
}

// QueryMsg selects one read-only call. Exactly one variant is set.
type QueryMsg struct {
	GetUpdate *GetUpdateQuery `json:"get_update,omitempty"`
}

func (m *QueryMsg) Validate() error {
	if m.GetUpdate == nil {
		return dErrors.New(dErrors.CodeBadRequest, "query message must name a known variant")
	}
	return RequireModelID(m.GetUpdate.ModelID)
}
