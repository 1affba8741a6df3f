package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Gamma serializa outcomes y clobTokenIds como strings JSON embebidos.
func mapGammaMarket(w domain.Window, gm gammaMarket) (domain.Market, error) {
	var outcomes []string
	if err := json.Unmarshal([]byte(gm.Outcomes), &outcomes); err != nil {
		return domain.Market{}, fmt.Errorf("parse outcomes %q: %w", gm.Outcomes, err)
	}

	var tokenIDs []string
	if err := json.Unmarshal([]byte(gm.ClobTokenIDs), &tokenIDs); err != nil {
		return domain.Market{}, fmt.Errorf("parse clobTokenIds: %w", err)
	}

	if len(outcomes) < 2 || len(tokenIDs) < 2 {
		return domain.Market{}, fmt.Errorf("market %s: expected 2 outcomes/tokens, got %d/%d",
			gm.ConditionID, len(outcomes), len(tokenIDs))
	}

	// El índice UP es el outcome "Up"/"Yes"; el otro es DOWN
	upIdx := 1
	switch strings.ToLower(outcomes[0]) {
	case "up", "yes":
		upIdx = 0
	}

	return domain.Market{
		Window:    w,
		Question:  gm.Question,
		UpToken:   tokenIDs[upIdx],
		DownToken: tokenIDs[1-upIdx],
		Closed:    gm.Closed,
	}, nil
}

// parseNum convierte un string numérico del feed; devuelve 0 si no parsea.
func parseNum(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
