package params

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
)

type Matching struct {
	// UnitDecimals sets the fixed-point unit U = 10^UnitDecimals.
	UnitDecimals uint8
	// Default thresholds for markets that do not set their own, as human
	// decimals in the base currency ("0.15").
	MakerMinimum string
	TakerMinimum string
}

// MarketConfig is one MARKETS entry, written SYMBOL:BASE:QUOTE. Base is the
// currency buyers give; Quote is the traded asset.
type MarketConfig struct {
	Symbol string
	Base   common.Address
	Quote  common.Address
}

type API struct {
	Addr        string
	CORSOrigins []string
}

type Storage struct {
	BookDBPath   string
	SnapshotFile string // imported at boot when set
	JournalFile  string // match audit log; empty disables it
}

type Log struct {
	File  string
	Level string
}

type Config struct {
	Matching Matching
	Markets  []MarketConfig
	API      API
	Storage  Storage
	Log      Log
}

func Default() Config {
	return Config{
		Matching: Matching{
			UnitDecimals: 18,
			MakerMinimum: "0.15",
			TakerMinimum: "0.05",
		},
		Markets: []MarketConfig{{
			Symbol: "WETH-USDC",
			Base:   common.HexToAddress("0x0000000000000000000000000000000000000000"),
			Quote:  common.HexToAddress("0xe62cc4212610289d7374f72c2390a40e78583350"),
		}},
		API: API{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Storage: Storage{
			BookDBPath:  "data/books",
			JournalFile: "data/matches.jsonl",
		},
		Log: Log{
			File:  "data/matchd.log",
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if d := os.Getenv("UNIT_DECIMALS"); d != "" {
		n, err := strconv.ParseUint(d, 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("UNIT_DECIMALS: %w", err)
		}
		cfg.Matching.UnitDecimals = uint8(n)
	}
	cfg.Matching.MakerMinimum = getEnv("MAKER_MINIMUM", cfg.Matching.MakerMinimum)
	cfg.Matching.TakerMinimum = getEnv("TAKER_MINIMUM", cfg.Matching.TakerMinimum)

	if m := os.Getenv("MARKETS"); m != "" {
		markets, err := ParseMarkets(m)
		if err != nil {
			return cfg, fmt.Errorf("MARKETS: %w", err)
		}
		cfg.Markets = markets
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.CORSOrigins = splitList(origins)
	}

	cfg.Storage.BookDBPath = getEnv("BOOK_DB_PATH", cfg.Storage.BookDBPath)
	cfg.Storage.SnapshotFile = getEnv("SNAPSHOT_FILE", cfg.Storage.SnapshotFile)
	if j, ok := os.LookupEnv("MATCH_JOURNAL"); ok {
		cfg.Storage.JournalFile = j
	}

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	return cfg, cfg.Validate()
}

// Validate checks that the unit and both default minimums parse.
func (c Config) Validate() error {
	u, err := c.Unit()
	if err != nil {
		return err
	}
	if _, err := amount.FromString(c.Matching.MakerMinimum, u); err != nil {
		return fmt.Errorf("MAKER_MINIMUM: %w", err)
	}
	if _, err := amount.FromString(c.Matching.TakerMinimum, u); err != nil {
		return fmt.Errorf("TAKER_MINIMUM: %w", err)
	}
	return nil
}

func (c Config) Unit() (amount.Unit, error) {
	return amount.NewUnit(c.Matching.UnitDecimals)
}

// Minimums returns the default maker and taker minimums scaled to the unit.
func (c Config) Minimums() (maker, taker *uint256.Int, err error) {
	u, err := c.Unit()
	if err != nil {
		return nil, nil, err
	}
	if maker, err = amount.FromString(c.Matching.MakerMinimum, u); err != nil {
		return nil, nil, fmt.Errorf("maker minimum: %w", err)
	}
	if taker, err = amount.FromString(c.Matching.TakerMinimum, u); err != nil {
		return nil, nil, fmt.Errorf("taker minimum: %w", err)
	}
	return maker, taker, nil
}

// ParseMarkets reads a comma separated list of SYMBOL:BASE:QUOTE entries.
func ParseMarkets(s string) ([]MarketConfig, error) {
	var out []MarketConfig
	for _, entry := range splitList(s) {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" {
			return nil, fmt.Errorf("market %q: want SYMBOL:BASE:QUOTE", entry)
		}
		for _, addr := range parts[1:] {
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("market %q: %q is not an address", entry, addr)
			}
		}
		out = append(out, MarketConfig{
			Symbol: parts[0],
			Base:   common.HexToAddress(parts[1]),
			Quote:  common.HexToAddress(parts[2]),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no markets listed")
	}
	return out, nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
