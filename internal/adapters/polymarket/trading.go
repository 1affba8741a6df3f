package polymarket

// trading.go — ejecución real de órdenes fill-or-kill contra el CLOB.
// Implementa ports.OrderPlacer sobre AuthClient.

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

const (
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
)

var balanceOfABI abi.ABI

func init() {
	var err error
	balanceOfABI, err = abi.JSON(strings.NewReader(`[{
		"name":"balanceOf","type":"function",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]
	}]`))
	if err != nil {
		panic("balanceOf abi: " + err.Error())
	}
}

// TradingClient firma y envía órdenes FOK. rpcClient se usa solo para el
// chequeo de balance USDC.e en el preflight.
type TradingClient struct {
	auth      *AuthClient
	rpcClient *ethclient.Client

	// neg-risk es una propiedad fija del mercado; una consulta por token
	negRiskMu sync.Mutex
	negRisk   map[string]bool
}

// NewTradingClient crea un TradingClient. rpcURL apunta a un RPC de Polygon.
func NewTradingClient(auth *AuthClient, rpcURL string) (*TradingClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("trading: dial rpc: %w", err)
	}
	return &TradingClient{
		auth:      auth,
		rpcClient: rpc,
		negRisk:   make(map[string]bool),
	}, nil
}

// PlaceFillOrKill firma y envía un FOK de compra. Un FOK cancelado por falta
// de liquidez devuelve PlacedOrder{Filled: false} sin error.
func (tc *TradingClient) PlaceFillOrKill(ctx context.Context, order domain.FOKOrder) (domain.PlacedOrder, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("place fok: creds: %w", err)
	}

	order.NegRisk = tc.isNegRisk(ctx, order.TokenID, order.NegRisk)

	signed, err := tc.auth.buildSignedOrder(order)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("place fok: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          signed.Order.Salt.String(),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       order.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.ownerKey(),
		OrderType: "FOK",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("place fok: post: %w", err)
	}

	status := strings.ToLower(resp.Status)

	if resp.Success && (status == "matched" || status == "filled") {
		return domain.PlacedOrder{OrderID: resp.OrderID, Filled: true, Status: resp.Status}, nil
	}

	// FOK cancelado: el libro se movió entre el quote y la orden
	if isKilledStatus(status, resp.ErrorMsg) {
		return domain.PlacedOrder{OrderID: resp.OrderID, Filled: false, Status: resp.Status}, nil
	}

	return domain.PlacedOrder{}, fmt.Errorf("place fok: clob error: %s (status=%s)", resp.ErrorMsg, resp.Status)
}

// isKilledStatus distingue el kill benigno de un FOK del rechazo real.
func isKilledStatus(status, errorMsg string) bool {
	if status == "unmatched" || status == "killed" || status == "canceled" || status == "cancelled" {
		return true
	}
	msg := strings.ToLower(errorMsg)
	return strings.Contains(msg, "fok") || strings.Contains(msg, "liquidity") ||
		strings.Contains(msg, "not filled")
}

// isNegRisk consulta si el token usa el adapter NegRisk, con caché por token.
// Si la consulta falla, usa el fallback del caller.
func (tc *TradingClient) isNegRisk(ctx context.Context, tokenID string, fallback bool) bool {
	tc.negRiskMu.Lock()
	if v, ok := tc.negRisk[tokenID]; ok {
		tc.negRiskMu.Unlock()
		return v
	}
	tc.negRiskMu.Unlock()

	url := fmt.Sprintf("%s/neg-risk?token_id=%s", tc.auth.clobBase, tokenID)
	var resp clobNegRiskResponse
	if err := tc.auth.get(ctx, tc.auth.clobLimiter, url, &resp); err != nil {
		return fallback
	}

	tc.negRiskMu.Lock()
	tc.negRisk[tokenID] = resp.NegRisk
	tc.negRiskMu.Unlock()
	return resp.NegRisk
}

// GetBalance devuelve el balance on-chain de USDC.e del wallet.
func (tc *TradingClient) GetBalance(ctx context.Context) (float64, error) {
	callData, err := balanceOfABI.Pack("balanceOf", tc.auth.address)
	if err != nil {
		return 0, fmt.Errorf("get balance: pack: %w", err)
	}

	token := common.HexToAddress(usdcEAddress)
	result, err := tc.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("get balance: rpc call: %w", err)
	}

	vals, err := balanceOfABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("get balance: unpack: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return bal, nil
}

// Address devuelve la dirección del wallet del cliente autenticado.
func (tc *TradingClient) Address() string {
	return tc.auth.Address()
}
