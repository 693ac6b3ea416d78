package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cikyc/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRecordID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		id := NewRecordID()
		parsed, err := ParseRecordID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

// TestIDs_JSONWireShape pins the JSON encoding of the wrapper types to the
// canonical UUID string. A defined type over uuid.UUID does not inherit its
// MarshalText, so without the delegation every API body would carry ids as
// byte arrays.
func TestIDs_JSONWireShape(t *testing.T) {
	t.Run("marshals as string", func(t *testing.T) {
		id := NewRecordID()
		body := struct {
			ID RecordID `json:"id"`
		}{ID: id}

		raw, err := json.Marshal(body)
		require.NoError(t, err)
		assert.JSONEq(t, fmt.Sprintf(`{"id":%q}`, id.String()), string(raw))
	})

	t.Run("unmarshals from string", func(t *testing.T) {
		want := NewUserID()
		var body struct {
			ID UserID `json:"id"`
		}

		err := json.Unmarshal([]byte(fmt.Sprintf(`{"id":%q}`, want.String())), &body)
		require.NoError(t, err)
		assert.Equal(t, want, body.ID)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		var body struct {
			ID IdentityID `json:"id"`
		}
		err := json.Unmarshal([]byte(`{"id":"not-a-uuid"}`), &body)
		require.Error(t, err)
	})
}
