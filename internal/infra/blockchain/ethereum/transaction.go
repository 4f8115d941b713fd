package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/poolhistory/internal/mempool"
	"github.com/gabapcia/poolhistory/internal/pkg/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TransactionResponse is a transaction object as returned by eth_getTransactionByHash.
// Block fields are null while the transaction is pending.
type TransactionResponse struct {
	Type                 string    `json:"type"`
	ChainID              string    `json:"chainId"`
	Nonce                string    `json:"nonce"`
	Gas                  string    `json:"gas"`
	GasPrice             string    `json:"gasPrice"`
	MaxFeePerGas         string    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string    `json:"maxPriorityFeePerGas"`
	From                 string    `json:"from"`
	To                   string    `json:"to"`
	Value                string    `json:"value"`
	Input                string    `json:"input"`
	Hash                 string    `json:"hash"`
	BlockHash            string    `json:"blockHash"`
	BlockNumber          types.Hex `json:"blockNumber"`
	TransactionIndex     string    `json:"transactionIndex"`
}

func (t TransactionResponse) toMempoolTransaction() mempool.Transaction {
	return mempool.Transaction{
		Hash:        t.Hash,
		From:        t.From,
		To:          t.To,
		Nonce:       t.Nonce,
		Value:       t.Value,
		Gas:         t.Gas,
		GasPrice:    t.GasPrice,
		Input:       t.Input,
		Type:        t.Type,
		BlockHash:   t.BlockHash,
		BlockNumber: t.BlockNumber,
	}
}

// isNull reports whether a JSON-RPC result is empty or the literal null.
func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// FetchTransaction implements mempool.TransactionFetcher. A null result means
// the node does not know the hash (yet) and is reported as
// mempool.ErrTransactionNotFound.
func (c *client) FetchTransaction(ctx context.Context, hash string) (mempool.Transaction, error) {
	ctx, span := tracer.Start(ctx, "ethereum.FetchTransaction",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tx.hash", hash)),
	)
	defer span.End()

	data, err := c.conn.Fetch(ctx, "eth_getTransactionByHash", hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return mempool.Transaction{}, err
	}

	if isNull(data) {
		span.SetAttributes(attribute.Bool("tx.found", false))
		return mempool.Transaction{}, mempool.ErrTransactionNotFound
	}

	var resp TransactionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		err = fmt.Errorf("decode transaction %s: %w", hash, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid transaction payload")
		return mempool.Transaction{}, err
	}

	span.SetAttributes(attribute.Bool("tx.found", true))
	return resp.toMempoolTransaction(), nil
}
