package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHex_UnmarshalJSON(t *testing.T) {
	t.Run("valid lowercase hex", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`"0x1a"`), &h)
		require.NoError(t, err)
		assert.Equal(t, Hex("0x1a"), h)
	})

	t.Run("valid uppercase hex", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`"0X2F"`), &h)
		require.NoError(t, err)
		assert.Equal(t, Hex("0X2F"), h)
	})

	t.Run("null leaves the quantity absent", func(t *testing.T) {
		h := Hex("0x1")

		err := json.Unmarshal([]byte(`null`), &h)
		require.NoError(t, err)
		assert.True(t, h.IsZero())
	})

	t.Run("null inside a struct", func(t *testing.T) {
		var tx struct {
			BlockNumber Hex `json:"blockNumber"`
		}

		err := json.Unmarshal([]byte(`{"blockNumber":null}`), &tx)
		require.NoError(t, err)
		assert.True(t, tx.BlockNumber.IsZero())
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`"1a"`), &h))
	})

	t.Run("invalid hex characters", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`"0xZZZ"`), &h))
	})

	t.Run("not a string", func(t *testing.T) {
		var h Hex
		assert.Error(t, json.Unmarshal([]byte(`42`), &h))
	})
}

func TestHex_MarshalJSON(t *testing.T) {
	t.Run("present quantity", func(t *testing.T) {
		data, err := json.Marshal(Hex("0x2a"))
		require.NoError(t, err)
		assert.Equal(t, `"0x2a"`, string(data))
	})

	t.Run("absent quantity", func(t *testing.T) {
		data, err := json.Marshal(Hex(""))
		require.NoError(t, err)
		assert.Equal(t, `null`, string(data))
	})
}

func TestHex_Uint64(t *testing.T) {
	assert.Equal(t, uint64(10), Hex("0x0a").Uint64())
	assert.Equal(t, uint64(255), Hex("0xff").Uint64())
	assert.Equal(t, uint64(16), Hex("0X10").Uint64())
	assert.Equal(t, uint64(0), Hex("0xZZZ").Uint64(), "malformed decodes to zero")
	assert.Equal(t, uint64(0), Hex("").Uint64(), "absent decodes to zero")
}
