package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polysniper/internal/domain"
)

// Config es la configuración completa del sniper.
type Config struct {
	Assets  []AssetConfig `yaml:"assets"`
	Risk    RiskConfig    `yaml:"risk"`
	Gate    GateConfig    `yaml:"gate"`
	Book    BookConfig    `yaml:"book"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// AssetConfig describe un asset monitorizado y sus intervalos.
type AssetConfig struct {
	Symbol        string   `yaml:"symbol"`         // slug corto: "btc"
	BinanceSymbol string   `yaml:"binance_symbol"` // referencia spot: "BTCUSDT"
	Intervals     []string `yaml:"intervals"`      // "15m", "5m"

	// tabla de tiers; vacía usa la default
	Tiers []TierConfig `yaml:"tiers"`

	// umbrales del safety gate, en puntos de por ciento
	BufferPct   float64 `yaml:"buffer_pct"`
	MomentumPct float64 `yaml:"momentum_pct"`
}

// TierConfig es una entrada de la tabla de precios objetivo.
type TierConfig struct {
	MaxSecondsRemaining int     `yaml:"max_seconds_remaining"`
	TargetPrice         float64 `yaml:"target_price"`
}

// RiskConfig son los topes de exposición, en USDC.
type RiskConfig struct {
	SizeUSDC         float64 `yaml:"size_usdc"`          // presupuesto por orden
	MaxPositionSize  float64 `yaml:"max_position_size"`  // tope por orden
	MaxTotalExposure float64 `yaml:"max_total_exposure"` // tope de la sesión
}

// GateConfig controla el safety gate globalmente.
type GateConfig struct {
	LookbackMinutes int  `yaml:"lookback_minutes"`
	DisableBuffer   bool `yaml:"disable_buffer"`
	DisableMomentum bool `yaml:"disable_momentum"`
}

// BookConfig controla el clasificador de staleness del book.
type BookConfig struct {
	MaxPriceSum float64 `yaml:"max_price_sum"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	CLOBBase    string `yaml:"clob_base"`
	GammaBase   string `yaml:"gamma_base"`
	WSBase      string `yaml:"ws_base"`
	BinanceBase string `yaml:"binance_base"`
}

// StorageConfig controla dónde se persiste el log de trades.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML. Los secretos
// (clave privada, RPC) van SOLO por entorno, nunca en el YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PrivateKey devuelve la clave privada del wallet, solo desde el entorno.
func PrivateKey() string { return os.Getenv("POLY_PRIVATE_KEY") }

// RPCURL devuelve el RPC de Polygon para los chequeos on-chain.
func RPCURL() string { return os.Getenv("RPC_URL") }

// TierTable convierte la tabla configurada del asset a domain.TierTable.
// Una tabla vacía usa la default.
func (a AssetConfig) TierTable() domain.TierTable {
	if len(a.Tiers) == 0 {
		return domain.DefaultTierTable()
	}
	table := make(domain.TierTable, 0, len(a.Tiers))
	for _, t := range a.Tiers {
		table = append(table, domain.Tier{
			MaxSecondsRemaining: t.MaxSecondsRemaining,
			TargetPrice:         t.TargetPrice,
		})
	}
	return table
}

// IntervalDurations convierte los intervalos del asset a time.Duration.
func (a AssetConfig) IntervalDurations() ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(a.Intervals))
	for _, s := range a.Intervals {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("asset %s: bad interval %q: %w", a.Symbol, s, err)
		}
		if d < time.Minute {
			return nil, fmt.Errorf("asset %s: interval %q below 1m", a.Symbol, s)
		}
		out = append(out, d)
	}
	return out, nil
}

// Lookback devuelve la ventana del check de momentum.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Gate.LookbackMinutes) * time.Minute
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MAX_POSITION_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MaxPositionSize = f
		}
	}
	if v := os.Getenv("MAX_TOTAL_EXPOSURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MaxTotalExposure = f
		}
	}
}

func setDefaults(cfg *Config) {
	if len(cfg.Assets) == 0 {
		for _, a := range []struct{ sym, binance string }{
			{"btc", "BTCUSDT"}, {"eth", "ETHUSDT"}, {"sol", "SOLUSDT"}, {"xrp", "XRPUSDT"},
		} {
			cfg.Assets = append(cfg.Assets, AssetConfig{Symbol: a.sym, BinanceSymbol: a.binance})
		}
	}
	for i := range cfg.Assets {
		a := &cfg.Assets[i]
		if len(a.Intervals) == 0 {
			a.Intervals = []string{"15m"}
		}
		if a.BufferPct <= 0 {
			a.BufferPct = 0.10
		}
		if a.MomentumPct <= 0 {
			a.MomentumPct = 0.30
		}
	}
	if cfg.Risk.SizeUSDC <= 0 {
		cfg.Risk.SizeUSDC = 10
	}
	if cfg.Risk.MaxPositionSize <= 0 {
		cfg.Risk.MaxPositionSize = 50
	}
	if cfg.Risk.MaxTotalExposure <= 0 {
		cfg.Risk.MaxTotalExposure = 200
	}
	if cfg.Gate.LookbackMinutes <= 0 {
		cfg.Gate.LookbackMinutes = 3
	}
	if cfg.Book.MaxPriceSum <= 0 {
		cfg.Book.MaxPriceSum = domain.DefaultMaxPriceSum
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.WSBase == "" {
		cfg.API.WSBase = "wss://ws-subscriptions-clob.polymarket.com"
	}
	if cfg.API.BinanceBase == "" {
		cfg.API.BinanceBase = "https://api.binance.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polysniper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza configuraciones que romperían invariantes en runtime.
func (c *Config) validate() error {
	for _, a := range c.Assets {
		if a.Symbol == "" {
			return fmt.Errorf("asset with empty symbol")
		}
		if a.BinanceSymbol == "" {
			return fmt.Errorf("asset %s: missing binance_symbol", a.Symbol)
		}
		if err := a.TierTable().Validate(); err != nil {
			return fmt.Errorf("asset %s: tiers: %w", a.Symbol, err)
		}
		if _, err := a.IntervalDurations(); err != nil {
			return err
		}
	}
	if c.Risk.SizeUSDC > c.Risk.MaxPositionSize {
		return fmt.Errorf("size_usdc %.2f exceeds max_position_size %.2f",
			c.Risk.SizeUSDC, c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxPositionSize > c.Risk.MaxTotalExposure {
		return fmt.Errorf("max_position_size %.2f exceeds max_total_exposure %.2f",
			c.Risk.MaxPositionSize, c.Risk.MaxTotalExposure)
	}
	return nil
}
