// Package persistence declares the durable record contract: two append
// streams (opportunities, venue health) with batched writes, plus the repo
// interfaces a concrete backend implements. The contract is storage
// agnostic; internal/persistence/postgres is the one backend shipped here.
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sawpanic/arbiscan/internal/domain"
)

// OpportunityRecord is the opportunities-table row for a CrossOpportunity.
type OpportunityRecord struct {
	ID              uuid.UUID
	Type            string // always "CROSS"
	Symbol          string
	BuyVenue        string
	SellVenue       string
	BuyPriceBefore  float64
	SellPriceBefore float64
	BuyPriceAfter   float64
	SellPriceAfter  float64
	SpreadBPS       float64
	Notional        float64
	BuyLevels       int
	SellLevels      int
	BuyMaker        float64
	BuyTaker        float64
	SellMaker       float64
	SellTaker       float64
	Mode            string
	DetectionTS     time.Time
	InsertTS        time.Time
}

// NewOpportunityRecord converts a domain.CrossOpportunity into its durable
// row shape, stamping a fresh ID and insert time.
func NewOpportunityRecord(o domain.CrossOpportunity, insertTS time.Time) OpportunityRecord {
	return OpportunityRecord{
		ID:              uuid.New(),
		Type:            "CROSS",
		Symbol:          o.Symbol.String(),
		BuyVenue:        o.BuyVenue,
		SellVenue:       o.SellVenue,
		BuyPriceBefore:  o.BuyPriceBefore,
		SellPriceBefore: o.SellPriceBefore,
		BuyPriceAfter:   o.BuyPriceAfter,
		SellPriceAfter:  o.SellPriceAfter,
		SpreadBPS:       o.SpreadBPS,
		Notional:        o.Notional,
		BuyLevels:       o.BuyLevelsUsed,
		SellLevels:      o.SellLevelsUsed,
		BuyMaker:        o.BuyFees.Maker,
		BuyTaker:        o.BuyFees.Taker,
		SellMaker:       o.SellFees.Maker,
		SellTaker:       o.SellFees.Taker,
		Mode:            string(o.Mode),
		DetectionTS:     o.DetectionTS,
		InsertTS:        insertTS,
	}
}

// TriOpportunityRecord is the tri_opportunities-table row for a
// TriOpportunity.
type TriOpportunityRecord struct {
	ID          uuid.UUID
	Type        string // always "TRI"
	Venue       string
	Base        string
	A2          string
	A3          string
	StartAmount float64
	EndAmount   float64
	GainBPS     float64
	Notional    float64
	Leg1Symbol  string
	Leg1Price   float64
	Leg1Side    string
	Leg2Symbol  string
	Leg2Price   float64
	Leg2Side    string
	Leg3Symbol  string
	Leg3Price   float64
	Leg3Side    string
	Maker       float64
	Taker       float64
	DetectionTS time.Time
	InsertTS    time.Time
}

// NewTriOpportunityRecord converts a domain.TriOpportunity into its durable
// row shape.
func NewTriOpportunityRecord(o domain.TriOpportunity, insertTS time.Time) TriOpportunityRecord {
	return TriOpportunityRecord{
		ID:          uuid.New(),
		Type:        "TRI",
		Venue:       o.Venue,
		Base:        o.BaseAsset.String(),
		A2:          o.CycleA2.String(),
		A3:          o.CycleA3.String(),
		StartAmount: o.StartAmount,
		EndAmount:   o.EndAmount,
		GainBPS:     o.GainBPS,
		Notional:    o.StartAmount,
		Leg1Symbol:  o.Legs[0].Symbol.String(),
		Leg1Price:   o.Legs[0].Price,
		Leg1Side:    string(o.Legs[0].Side),
		Leg2Symbol:  o.Legs[1].Symbol.String(),
		Leg2Price:   o.Legs[1].Price,
		Leg2Side:    string(o.Legs[1].Side),
		Leg3Symbol:  o.Legs[2].Symbol.String(),
		Leg3Price:   o.Legs[2].Price,
		Leg3Side:    string(o.Legs[2].Side),
		Maker:       o.Fees.Maker,
		Taker:       o.Fees.Taker,
		DetectionTS: o.DetectionTS,
		InsertTS:    insertTS,
	}
}

// VenueHealthRecord is the venue_health-table row.
type VenueHealthRecord struct {
	ID                uuid.UUID
	Venue             string
	StreamConnected   bool
	RestOK            bool
	LastStreamTS      time.Time
	LastRestTS        time.Time
	ReconnectCount    int
	ErrorRate         float64
	QueueDepth        int
	CoalescedCount    int64
	SchedulerLagMS    int64
	SubscribedSymbols []string
	TS                time.Time
	InsertTS          time.Time
}

// NewVenueHealthRecord converts a domain.VenueHealth into its durable row
// shape.
func NewVenueHealthRecord(h domain.VenueHealth, ts, insertTS time.Time) VenueHealthRecord {
	return VenueHealthRecord{
		ID:                uuid.New(),
		Venue:             h.Venue,
		StreamConnected:   h.StreamConnected,
		RestOK:            h.RestOK,
		LastStreamTS:      h.LastStreamMsgTS,
		LastRestTS:        h.LastRestTS,
		ReconnectCount:    h.ReconnectCount,
		ErrorRate:         h.ErrorRate,
		QueueDepth:        h.QueueDepth,
		CoalescedCount:    h.CoalescedCount,
		SchedulerLagMS:    h.SchedulerLagMS,
		SubscribedSymbols: h.SubscribedSymbols,
		TS:                ts,
		InsertTS:          insertTS,
	}
}

// OpportunityRepo persists Cross opportunity records.
type OpportunityRepo interface {
	InsertBatch(ctx context.Context, rows []OpportunityRecord) error
}

// TriOpportunityRepo persists Triangular opportunity records.
type TriOpportunityRepo interface {
	InsertBatch(ctx context.Context, rows []TriOpportunityRecord) error
}

// VenueHealthRepo persists venue health snapshots.
type VenueHealthRepo interface {
	InsertBatch(ctx context.Context, rows []VenueHealthRecord) error
}

// Sink is the append contract: one append operation per record kind (cross
// opportunity, triangular opportunity, venue health). Writer batches them.
type Sink interface {
	AppendOpportunity(o domain.CrossOpportunity)
	AppendTriOpportunity(o domain.TriOpportunity)
	AppendVenueHealth(h domain.VenueHealth, ts time.Time)
}

// NoopSink discards every record. Used when no database is configured.
type NoopSink struct{}

func (NoopSink) AppendOpportunity(o domain.CrossOpportunity)             {}
func (NoopSink) AppendTriOpportunity(o domain.TriOpportunity)            {}
func (NoopSink) AppendVenueHealth(h domain.VenueHealth, ts time.Time)    {}
