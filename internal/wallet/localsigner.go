package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// LocalSigner is a Provider backed by an in-process key and an RPC node.
// It is the custodial deployment's stand-in for a browser wallet: account
// authorization always succeeds for the configured key and nothing prompts.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	client  *ethclient.Client
	chainID *big.Int
	events  chan Event
	log     *zap.Logger
}

func NewLocalSigner(ctx context.Context, rpcURL, privateKeyHex string, chainID int64, log *zap.Logger) (*LocalSigner, error) {
	if rpcURL == "" || privateKeyHex == "" {
		return nil, ErrProviderUnavailable
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		client:  client,
		chainID: big.NewInt(chainID),
		events:  make(chan Event),
		log:     log,
	}, nil
}

func (p *LocalSigner) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{strings.ToLower(p.address.Hex())}, nil
}

func (p *LocalSigner) Accounts(ctx context.Context) ([]string, error) {
	return []string{strings.ToLower(p.address.Hex())}, nil
}

func (p *LocalSigner) SignTransaction(ctx context.Context, draft json.RawMessage) (string, error) {
	tx, err := p.buildTx(ctx, draft)
	if err != nil {
		return "", err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(raw), nil
}

func (p *LocalSigner) SendTransaction(ctx context.Context, draft json.RawMessage) (PendingTx, error) {
	tx, err := p.buildTx(ctx, draft)
	if err != nil {
		return nil, err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	p.log.Info("transaction sent", zap.String("hash", signed.Hash().Hex()))
	return &pendingTx{hash: signed.Hash(), client: p.client}, nil
}

// Events never fires for a local key: there is no out-of-band wallet UI that
// could switch accounts or chains underneath us.
func (p *LocalSigner) Events() <-chan Event {
	return p.events
}

// Balance returns the native-token balance of an address in wei.
func (p *LocalSigner) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	return p.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

func (p *LocalSigner) Close() {
	p.client.Close()
}

// txDraft is the wire shape of an unsigned transaction draft from the
// preparation API. Quantities arrive as hex strings, decimal strings or
// plain numbers depending on the endpoint.
type txDraft struct {
	To       string    `json:"to"`
	Value    *quantity `json:"value"`
	Gas      *quantity `json:"gas"`
	GasLimit *quantity `json:"gasLimit"`
	GasPrice *quantity `json:"gasPrice"`
	Nonce    *quantity `json:"nonce"`
	Data     string    `json:"data"`
}

func (p *LocalSigner) buildTx(ctx context.Context, draft json.RawMessage) (*types.Transaction, error) {
	var d txDraft
	if err := json.Unmarshal(draft, &d); err != nil {
		return nil, fmt.Errorf("invalid transaction draft: %w", err)
	}
	if !common.IsHexAddress(d.To) {
		return nil, fmt.Errorf("invalid transaction draft: bad to address %q", d.To)
	}
	to := common.HexToAddress(d.To)

	value := big.NewInt(0)
	if d.Value != nil {
		value = d.Value.Int()
	}

	var data []byte
	if d.Data != "" && d.Data != "0x" {
		b, err := hexutil.Decode(d.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction draft: bad data field: %w", err)
		}
		data = b
	}

	var nonce uint64
	if d.Nonce != nil {
		nonce = d.Nonce.Int().Uint64()
	} else {
		n, err := p.client.PendingNonceAt(ctx, p.address)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch nonce: %w", err)
		}
		nonce = n
	}

	gasPrice := (*big.Int)(nil)
	if d.GasPrice != nil {
		gasPrice = d.GasPrice.Int()
	} else {
		gp, err := p.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch gas price: %w", err)
		}
		gasPrice = gp
	}

	gas := uint64(0)
	switch {
	case d.Gas != nil:
		gas = d.Gas.Int().Uint64()
	case d.GasLimit != nil:
		gas = d.GasLimit.Int().Uint64()
	default:
		gas = 21000
		if len(data) > 0 {
			est, err := p.client.EstimateGas(ctx, ethereum.CallMsg{
				From: p.address, To: &to, Value: value, Data: data,
			})
			if err != nil {
				return nil, fmt.Errorf("gas estimation failed: %w", err)
			}
			gas = est
		}
	}

	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}), nil
}

type pendingTx struct {
	hash   common.Hash
	client *ethclient.Client
}

func (t *pendingTx) Hash() string {
	return t.hash.Hex()
}

// Wait polls for the receipt until confirmation or ctx expiry.
func (t *pendingTx) Wait(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := t.client.TransactionReceipt(ctx, t.hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", t.hash.Hex())
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("failed to fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// quantity decodes a JSON numeric field that may be a hex string ("0x5208"),
// a decimal string ("21000") or a bare number.
type quantity big.Int

func (q *quantity) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}

	var v *big.Int
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		dec, err := hexutil.DecodeBig(s)
		if err != nil {
			return fmt.Errorf("invalid hex quantity %q", s)
		}
		v = dec
	} else {
		dec, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("invalid quantity %q", s)
		}
		v = dec
	}

	(*big.Int)(q).Set(v)
	return nil
}

func (q *quantity) Int() *big.Int {
	return (*big.Int)(q)
}
