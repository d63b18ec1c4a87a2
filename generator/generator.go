// Package generator produces a deterministic synthetic sales fact table.
package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/olap/engine"
)

// Config controls the shape and size of the generated data.
type Config struct {
	Years    []int              `json:"years" yaml:"years"`
	Products []string           `json:"products" yaml:"products"`
	Regions  []string           `json:"regions" yaml:"regions"`
	Channels []string           `json:"channels" yaml:"channels"`
	PerMonth int                `json:"perMonth" yaml:"perMonth"` // transactions per calendar month
	Seed     uint64             `json:"seed" yaml:"seed"`
	Prices   map[string]float64 `json:"prices,omitempty" yaml:"prices,omitempty"` // base unit price per product
	MaxUnits int                `json:"maxUnits" yaml:"maxUnits"`
}

// DefaultConfig returns the data set used by the demo shell.
func DefaultConfig() Config {
	return Config{
		Years:    []int{2023, 2024, 2025},
		Products: []string{"A", "B", "C", "D"},
		Regions:  []string{"Norte", "Sur", "Este", "Oeste"},
		Channels: []string{"Online", "Tienda"},
		PerMonth: 20,
		Seed:     42,
		Prices:   map[string]float64{"A": 120, "B": 80, "C": 45, "D": 200},
		MaxUnits: 20,
	}
}

// Validate reports configuration that cannot produce records.
func (c Config) Validate() error {
	switch {
	case len(c.Years) == 0:
		return fmt.Errorf("generator: no years configured")
	case len(c.Products) == 0 || len(c.Regions) == 0 || len(c.Channels) == 0:
		return fmt.Errorf("generator: products, regions and channels must not be empty")
	case c.PerMonth < 0:
		return fmt.Errorf("generator: perMonth must not be negative, got %d", c.PerMonth)
	case c.MaxUnits < 1:
		return fmt.Errorf("generator: maxUnits must be at least 1, got %d", c.MaxUnits)
	}
	return nil
}

// Generate returns PerMonth transactions for every month of every year.
// The same Config always yields the same records in the same order.
// Quarters are derived from months; sales are quantity × unit price with the
// price jittered ±10% around the product's base price, rounded to cents.
func Generate(cfg Config) ([]engine.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	records := make([]engine.Record, 0, len(cfg.Years)*12*cfg.PerMonth)
	for _, year := range cfg.Years {
		for month := 1; month <= 12; month++ {
			for i := 0; i < cfg.PerMonth; i++ {
				product := cfg.Products[rng.IntN(len(cfg.Products))]
				qty := int64(1 + rng.IntN(cfg.MaxUnits))

				base, ok := cfg.Prices[product]
				if !ok {
					base = 100
				}
				price := decimal.NewFromFloat(base * (0.9 + 0.2*rng.Float64())).Round(2)

				records = append(records, engine.Record{
					Year:     year,
					Month:    month,
					Quarter:  engine.QuarterOf(month),
					Product:  product,
					Region:   cfg.Regions[rng.IntN(len(cfg.Regions))],
					Channel:  cfg.Channels[rng.IntN(len(cfg.Channels))],
					Sales:    price.Mul(decimal.NewFromInt(qty)),
					Quantity: qty,
				})
			}
		}
	}
	return records, nil
}
