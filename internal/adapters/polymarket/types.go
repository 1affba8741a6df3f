package polymarket

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete;
// la conversión a domain entities está en mapping.go.

// --- Gamma API ---

// gammaEvent es un evento de GET /events?slug=. Un evento updown contiene
// exactamente un mercado.
type gammaEvent struct {
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket es un mercado de Gamma. Outcomes y ClobTokenIDs llegan como
// strings JSON embebidos ("[\"Up\", \"Down\"]"), no como arrays.
type gammaMarket struct {
	ConditionID  string `json:"conditionId"`
	Question     string `json:"question"`
	Slug         string `json:"slug"`
	Outcomes     string `json:"outcomes"`
	ClobTokenIDs string `json:"clobTokenIds"`
	Closed       bool   `json:"closed"`
	Active       bool   `json:"active"`
	NegRisk      bool   `json:"negRisk"`
}

// --- CLOB API ---

// clobOrderRequest es el body del POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"` // "FOK"
}

type clobOrderBody struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          string `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// clobOrderResponse es la respuesta del POST /order.
type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}

// clobNegRiskResponse es la respuesta de GET /neg-risk.
type clobNegRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

// --- WebSocket market channel ---

// wsSubscribe es el mensaje de suscripción del canal de mercado.
type wsSubscribe struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// wsMessage es un evento del feed. event_type "book" trae el snapshot
// completo (bids/asks); "price_change" trae deltas en Changes.
type wsMessage struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Timestamp string          `json:"timestamp"`
	Bids      []wsBookLevel   `json:"bids,omitempty"`
	Asks      []wsBookLevel   `json:"asks,omitempty"`
	Changes   []wsPriceChange `json:"changes,omitempty"`
}

type wsBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wsPriceChange struct {
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"` // "BUY" | "SELL"
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}
