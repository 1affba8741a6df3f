package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

// Console implementa ports.Notifier. Los monitores escriben concurrentemente;
// el mutex evita líneas entrelazadas.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	// los quotes llegan varias veces por segundo por asset; se imprime
	// como mucho uno por asset cada quoteEvery
	quoteEvery time.Duration
	lastQuote  map[string]time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return NewConsoleWriter(os.Stdout)
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{
		out:        w,
		quoteEvery: 5 * time.Second,
		lastQuote:  make(map[string]time.Time),
	}
}

// Publish imprime el evento. Nunca devuelve error: la consola no puede
// frenar el trading.
func (c *Console) Publish(_ context.Context, ev domain.MonitorEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := ev.At.Format("15:04:05")

	switch ev.Kind {
	case domain.EventStateChange:
		fmt.Fprintf(c.out, "[%s] %-4s %s → %s\n", ts, ev.Asset, ev.Slug, ev.State)

	case domain.EventQuote:
		if last, ok := c.lastQuote[ev.Asset]; ok && ev.At.Sub(last) < c.quoteEvery {
			return nil
		}
		c.lastQuote[ev.Asset] = ev.At
		fmt.Fprintf(c.out, "[%s] %-4s UP %.3f DOWN %.3f target %.2f %ds left\n",
			ts, ev.Asset, ev.Up.Price, ev.Down.Price, ev.Target, ev.Remain)

	case domain.EventOutcome:
		if ev.Outcome != nil {
			c.printOutcome(ts, *ev.Outcome)
		}

	case domain.EventError:
		fmt.Fprintf(c.out, "[%s] %-4s ERROR %s: %v\n", ts, ev.Asset, ev.Slug, ev.Err)
	}
	return nil
}

func (c *Console) printOutcome(ts string, o domain.TradeOutcome) {
	switch {
	case o.Kind.Accepted():
		note := ""
		if o.Unchecked {
			note = " [gate unchecked]"
		}
		fmt.Fprintf(c.out, "[%s] %-4s ✓ FILLED %s %.2f × %.1f = $%.2f%s\n",
			ts, o.Market.Window.Asset, o.Side, o.Price, o.Shares, o.Cost, note)
	case o.Kind.GateBlocked():
		fmt.Fprintf(c.out, "[%s] %-4s ✗ %s: %s\n",
			ts, o.Market.Window.Asset, o.Kind, o.GateDetail)
	default:
		fmt.Fprintf(c.out, "[%s] %-4s ✗ %s %s @ %.2f\n",
			ts, o.Market.Window.Asset, o.Kind, o.Side, o.TargetPrice)
	}
}

// PrintSummary imprime la tabla de cierre de sesión: intentos recientes más
// agregados. Se llama una vez en el shutdown.
func (c *Console) PrintSummary(stats ports.SessionStats, outcomes []domain.TradeOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\nSession: %d attempts — fills:%d gate:%d rejected:%d failed:%d — spent $%.2f\n",
		stats.Attempts, stats.Fills, stats.GateBlocks, stats.Rejections,
		stats.OrderFails, stats.TotalCost)
	if stats.Unchecked > 0 {
		fmt.Fprintf(c.out, "  %d fill(s) executed with the safety gate unavailable\n", stats.Unchecked)
	}

	if len(outcomes) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Asset", "Window", "Result", "Side", "Price", "Shares", "Cost", "Detail")

	for _, o := range outcomes {
		detail := o.GateDetail
		if o.OrderID != "" {
			detail = shortID(o.OrderID)
		}
		table.Append(
			o.At.Format("15:04:05"),
			o.Market.Window.Asset,
			o.Market.Window.Start.Format("15:04"),
			string(o.Kind),
			string(o.Side),
			fmt.Sprintf("%.3f", o.Price),
			fmt.Sprintf("%.1f", o.Shares),
			fmt.Sprintf("$%.2f", o.Cost),
			detail,
		)
	}

	table.Render()
}

func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10] + "…"
}
