package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
)

// TransferEventTopic is keccak256("Transfer(address,address,uint256)")
var TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var (
	dialEVMClient    = ethclient.DialContext
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// EVMClientConfig tunes RPC access
type EVMClientConfig struct {
	RPCURL    string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// EVMClient reads ERC-20 transfer activity from an EVM node. Every call is
// throttled by a token bucket and bounded by a timeout; failures come back as
// RetryableChainError.
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	rpcURL  string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewEVMClient dials the node and reads its chain ID
func NewEVMClient(ctx context.Context, cfg EVMClientConfig) (*EVMClient, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := dialEVMClient(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	chainID, err := getClientChainID(client, dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("read chain id: %w", err)
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  cfg.RPCURL,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}, nil
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// CurrentHeight returns the latest block number
func (c *EVMClient) CurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.call(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		height, err = c.client.BlockNumber(ctx)
		return err
	})
	return height, err
}

// GetTransferLogs returns Transfer events of token whose recipient is
// recipient, between from and to inclusive, ordered by block then log index.
func (c *EVMClient) GetTransferLogs(ctx context.Context, token, recipient string, from, to uint64) ([]entities.TransferLog, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from %d > to %d", domainerrors.ErrInvalidInput, from, to)
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{common.HexToAddress(token)},
		Topics: [][]common.Hash{
			{TransferEventTopic},
			nil,
			{common.BytesToHash(common.HexToAddress(recipient).Bytes())},
		},
	}

	var logs []types.Log
	err := c.call(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = c.client.FilterLogs(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]entities.TransferLog, 0, len(logs))
	for _, lg := range logs {
		if tl, ok := decodeTransfer(lg); ok {
			out = append(out, tl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out, nil
}

// GetTransferByTxHash finds the first Transfer of token to recipient inside a
// mined transaction. Returns ErrNotFound when the receipt holds none.
func (c *EVMClient) GetTransferByTxHash(ctx context.Context, token, recipient, txHash string) (*entities.TransferLog, error) {
	var receipt *types.Receipt
	err := c.call(ctx, "eth_getTransactionReceipt", func(ctx context.Context) error {
		var err error
		receipt, err = c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
		return err
	})
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", domainerrors.ErrInvalidInput, txHash)
	}

	tokenAddr := common.HexToAddress(token)
	wantTo := entities.NormalizeAddress(recipient)
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != tokenAddr {
			continue
		}
		tl, ok := decodeTransfer(*lg)
		if ok && tl.To == wantTo {
			return &tl, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *EVMClient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return domainerrors.NewRetryableChainError(op, err)
	}
	if err := fn(ctx); err != nil {
		return domainerrors.NewRetryableChainError(op, err)
	}
	return nil
}

func decodeTransfer(lg types.Log) (entities.TransferLog, bool) {
	if lg.Removed || len(lg.Topics) < 3 || lg.Topics[0] != TransferEventTopic {
		return entities.TransferLog{}, false
	}
	return entities.TransferLog{
		TxHash:      strings.ToLower(lg.TxHash.Hex()),
		LogIndex:    lg.Index,
		From:        entities.NormalizeAddress(common.BytesToAddress(lg.Topics[1].Bytes()).Hex()),
		To:          entities.NormalizeAddress(common.BytesToAddress(lg.Topics[2].Bytes()).Hex()),
		Amount:      new(big.Int).SetBytes(lg.Data),
		BlockNumber: lg.BlockNumber,
	}, true
}
