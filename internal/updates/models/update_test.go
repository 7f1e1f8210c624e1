package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "secureupdate/pkg/domain-errors"
)

func TestAddUpdateRequestValidate(t *testing.T) {
	t.Run("requires model id", func(t *testing.T) {
		req := &AddUpdateRequest{ModelID: "", Encryption: "AES-GCM"}
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("whitespace model id is a valid key", func(t *testing.T) {
		req := &AddUpdateRequest{ModelID: "  ", Encryption: "AES-GCM"}
		assert.NoError(t, req.Validate())
		assert.NoError(t, RequireModelID(" "))
		assert.Error(t, RequireModelID(""))
	})

	t.Run("nil request is a bad request", func(t *testing.T) {
		var req *AddUpdateRequest
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeBadRequest))
	})

	t.Run("opaque fields may be empty", func(t *testing.T) {
		req := &AddUpdateRequest{ModelID: "MODEL_A"}
		assert.NoError(t, req.Validate())
	})
}

func TestNewUpdateCopiesFieldsVerbatim(t *testing.T) {
	req := AddUpdateRequest{
		ModelID:       "model_a",
		Key:           " k1 ",
		Checksum:      "c1",
		CID:           "cid1",
		UpdateVersion: "v1.0",
		IV:            "iv1",
		Tag:           "tag1",
		Encryption:    "AES-GCM",
	}
	u := NewUpdate(req)

	assert.Equal(t, "model_a", u.ModelID, "model id stays case-sensitive")
	assert.Equal(t, " k1 ", u.Key, "opaque fields are not trimmed")
	assert.Equal(t, req.Tag, u.Tag)
	assert.Equal(t, req.Encryption, u.Encryption)
}

func TestResponseAttributes(t *testing.T) {
	resp := (&Response{}).
		AddAttribute("method", "instantiate").
		AddAttribute("admin", "creator")

	require.Len(t, resp.Attributes, 2)
	assert.Equal(t, Attribute{Key: "method", Value: "instantiate"}, resp.Attributes[0])
	assert.Equal(t, "creator", resp.Attribute("admin"))
	assert.Empty(t, resp.Attribute("missing"))
}

func TestMessageVariants(t *testing.T) {
	t.Run("execute without a variant is malformed", func(t *testing.T) {
		err := (&ExecuteMsg{}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	t.Run("execute add_update validates the request", func(t *testing.T) {
		err := (&ExecuteMsg{AddUpdate: &AddUpdateRequest{}}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.NoError(t, (&ExecuteMsg{AddUpdate: &AddUpdateRequest{ModelID: "m"}}).Validate())
	})
	t.Run("query without a variant is malformed", func(t *testing.T) {
		err := (&QueryMsg{}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	t.Run("query get_update requires model id", func(t *testing.T) {
		err := (&QueryMsg{GetUpdate: &GetUpdateQuery{}}).Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.NoError(t, (&QueryMsg{GetUpdate: &GetUpdateQuery{ModelID: "m"}}).Validate())
	})
	t.Run("instantiate has no constraints", func(t *testing.T) {
		assert.NoError(t, (&InstantiateMsg{}).Validate())
	})
}
