// Package types holds small value types shared by the node adapters and the
// mempool core.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Hex is a JSON-RPC quantity: a hexadecimal number encoded as a string
// with a "0x" prefix (e.g. "0x1a"). The zero value means "absent", which is
// how a node reports the block number of a transaction still in the mempool.
type Hex string

func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	if _, err := strconv.ParseUint(s[2:], 16, 64); err != nil {
		return fmt.Errorf("invalid hexadecimal value: %w", err)
	}

	return nil
}

// IsZero reports whether the quantity is absent.
func (h Hex) IsZero() bool {
	return h == ""
}

// MarshalJSON encodes the quantity as a JSON string, or null when absent.
func (h Hex) MarshalJSON() ([]byte, error) {
	if h.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded quantity. A JSON null
// leaves the value absent.
func (h *Hex) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// Uint64 returns the decoded value. Absent or malformed quantities decode to zero.
func (h Hex) Uint64() uint64 {
	if len(h) < 2 {
		return 0
	}

	v, _ := strconv.ParseUint(string(h)[2:], 16, 64)
	return v
}
