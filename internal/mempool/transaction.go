package mempool

import (
	"time"

	"github.com/gabapcia/poolhistory/internal/pkg/types"
)

// TimedHash is a transaction hash observed Elapsed after the start of the run.
type TimedHash struct {
	Hash    string        // transaction hash as announced by the node
	Elapsed time.Duration // monotonic time between the run start and the capture
}

// Transaction is the body of a transaction as reported by the node. Fields
// are kept in their wire encoding; the pipeline does not interpret them.
type Transaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"` // empty for contract creation
	Nonce       string    `json:"nonce"`
	Value       string    `json:"value"`
	Gas         string    `json:"gas"`
	GasPrice    string    `json:"gasPrice,omitempty"`
	Input       string    `json:"input"`
	Type        string    `json:"type,omitempty"`
	BlockHash   string    `json:"blockHash,omitempty"`
	BlockNumber types.Hex `json:"blockNumber"` // absent while the transaction is pending
}

// IsConfirmed reports whether the transaction was already included in a block
// when it was looked up.
func (t Transaction) IsConfirmed() bool {
	return !t.BlockNumber.IsZero()
}

// TimedTransaction is a resolved transaction stamped with the instant its hash
// was captured. Timestamp never reflects the resolution time.
type TimedTransaction struct {
	Hash        string      `json:"hash"`
	Timestamp   time.Time   `json:"timestamp"`
	Transaction Transaction `json:"transaction"`
}
