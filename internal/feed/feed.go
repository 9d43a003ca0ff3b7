package feed

import (
	"math"
	"math/rand/v2"
	"time"

	tomb "gopkg.in/tomb.v2"
)

// Tick is one synthetic market-data point.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    uint64    `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed generates synthetic ticks for a fixed symbol universe at a steady
// interval. Consumers read from Ticks; if nobody is reading, ticks are
// dropped rather than blocking the generator.
type Feed struct {
	symbols  []string
	interval time.Duration
	ticks    chan Tick
}

func New(symbols []string, interval time.Duration) *Feed {
	return &Feed{
		symbols:  symbols,
		interval: interval,
		ticks:    make(chan Tick, 16),
	}
}

func (f *Feed) Ticks() <-chan Tick {
	return f.ticks
}

// Run produces ticks until the tomb starts dying.
func (f *Feed) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			select {
			case f.ticks <- f.next():
			default:
			}
		}
	}
}

func (f *Feed) next() Tick {
	return Tick{
		Symbol:    f.symbols[rand.IntN(len(f.symbols))],
		Price:     math.Round(rand.Float64()*1000*100) / 100,
		Volume:    uint64(rand.IntN(1000)),
		Timestamp: time.Now(),
	}
}
