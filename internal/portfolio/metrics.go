// Package portfolio computes the dashboard summary from rows read through the
// generic entity store.
package portfolio

import (
	"context"
	"math"
	"sort"

	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/result"
)

const (
	PositionsTable = "positions"
	BrokerTable    = "broker"

	StatusConnected = "connected"
)

// Reader is the read half of entity.Store.
type Reader interface {
	Read(ctx context.Context, filter record.Record, table string) (result.Envelope, error)
}

type Config struct {
	DefaultBalance float64 // used for brokers with no balance of their own
}

type Position struct {
	ID     int64
	Symbol string
	Broker string
	PnL    float64
}

type BrokerSummary struct {
	Broker    string  `json:"broker"`
	Positions int     `json:"positions"`
	PnL       float64 `json:"pnl"`
}

type Summary struct {
	Broker           string          `json:"broker,omitempty"`
	TotalPnL         float64         `json:"total_pnl"`
	TotalValue       float64         `json:"total_value"`
	TotalPositions   int             `json:"total_positions"`
	WinningPositions int             `json:"winning_positions"`
	WinRate          float64         `json:"win_rate"`
	ByBroker         []BrokerSummary `json:"by_broker"`
}

// Compute summarises positions, restricted to one broker when broker is not
// empty.
func Compute(ctx context.Context, rd Reader, cfg Config, broker string) (Summary, error) {
	res := Summary{Broker: broker, ByBroker: []BrokerSummary{}}

	positions, err := loadPositions(ctx, rd, broker)
	if err != nil {
		return res, err
	}
	brokers, err := Brokers(ctx, rd, cfg)
	if err != nil {
		return res, err
	}

	perBroker := map[string]*BrokerSummary{}
	for _, p := range positions {
		res.TotalPnL += p.PnL
		res.TotalPositions++
		if p.PnL > 0 {
			res.WinningPositions++
		}
		bs, ok := perBroker[p.Broker]
		if !ok {
			bs = &BrokerSummary{Broker: p.Broker}
			perBroker[p.Broker] = bs
		}
		bs.Positions++
		bs.PnL += p.PnL
	}
	res.WinRate = winRate(res.WinningPositions, res.TotalPositions)

	for _, b := range brokers {
		if broker != "" && text(b, "name") != broker {
			continue
		}
		bal, _ := b.Get("balance")
		f, _ := bal.AsFloat()
		res.TotalValue += f
	}

	names := make([]string, 0, len(perBroker))
	for n := range perBroker {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		res.ByBroker = append(res.ByBroker, *perBroker[n])
	}
	return res, nil
}

// Brokers reads every broker row and fills in balance and status where the
// row has none.
func Brokers(ctx context.Context, rd Reader, cfg Config) ([]record.Record, error) {
	env, err := rd.Read(ctx, record.Record{}, BrokerTable)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, env.Count())
	for _, b := range env.Items {
		if v, ok := b.Get("balance"); !ok || v.IsAbsent() {
			b.Set("balance", record.Float(cfg.DefaultBalance))
		}
		if v, ok := b.Get("status"); !ok || v.IsEmpty() {
			b.Set("status", record.Text(StatusConnected))
		}
		out = append(out, b)
	}
	return out, nil
}

func loadPositions(ctx context.Context, rd Reader, broker string) ([]Position, error) {
	var filter record.Record
	if broker != "" {
		filter.Set("broker", record.Text(broker))
	}
	env, err := rd.Read(ctx, filter, PositionsTable)
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0, env.Count())
	for _, row := range env.Items {
		var p Position
		if v, ok := row.Get("id"); ok {
			p.ID, _ = v.AsInt()
		}
		p.Symbol = text(row, "symbol")
		p.Broker = text(row, "broker")
		if v, ok := row.Get("pnl"); ok {
			p.PnL, _ = v.AsFloat()
		}
		out = append(out, p)
	}
	return out, nil
}

func text(r record.Record, name string) string {
	v, ok := r.Get(name)
	if !ok || v.IsNull() {
		return ""
	}
	return v.String()
}

// winRate is a percentage rounded to one decimal.
func winRate(winning, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(winning)/float64(total)*1000) / 10
}
