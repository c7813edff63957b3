// Inter-city trade: offers posted by one city, accepted by another to form
// recurring deals that settle each cycle.
package region

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mkessler/gridtown/internal/tuning"
)

// TradeOffer is a standing proposal from one city. It is consumed when
// accepted (producing a deal) or withdrawn by its creator.
type TradeOffer struct {
	ID              string   `json:"id"`
	FromCityID      string   `json:"from_city_id"`
	Offered         Resource `json:"offered"`
	OfferedAmount   int64    `json:"offered_amount"`
	Requested       Resource `json:"requested"`
	RequestedAmount int64    `json:"requested_amount"`
	CreatedCycle    uint64   `json:"created_cycle"`
}

// TradeDeal is an accepted offer shipping its offered total over a fixed
// number of cycles. AmountPerCycle is the offered total divided by the
// default duration, rounded up; the final cycle ships only the remainder so
// the lifetime total equals the offered amount exactly.
type TradeDeal struct {
	ID              string   `json:"id"`
	ExporterID      string   `json:"exporter_id"`
	ImporterID      string   `json:"importer_id"`
	Resource        Resource `json:"resource"`
	AmountPerCycle  int64    `json:"amount_per_cycle"`
	TotalAmount     int64    `json:"total_amount"`
	Shipped         int64    `json:"shipped"`
	DurationCycles  int      `json:"duration_cycles"`
	CyclesRemaining int      `json:"cycles_remaining"`
}

// CreateTradeOffer posts an offer from a city. Both amounts must be
// positive; offering and requesting the same resource is permitted.
func (r *Region) CreateTradeOffer(fromCityID string, offered Resource, offeredAmount int64, requested Resource, requestedAmount int64) (*TradeOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.cityIndex[fromCityID]
	if !ok {
		return nil, ErrNotFound
	}
	if offeredAmount <= 0 || requestedAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	offer := &TradeOffer{
		ID:              uuid.NewString(),
		FromCityID:      fromCityID,
		Offered:         offered,
		OfferedAmount:   offeredAmount,
		Requested:       requested,
		RequestedAmount: requestedAmount,
		CreatedCycle:    r.cycle,
	}
	r.offers = append(r.offers, offer)
	r.offerIndex[offer.ID] = offer
	r.emit("trade", fmt.Sprintf("%s offers %d %s for %d %s",
		slot.Name, offeredAmount, offered, requestedAmount, requested))
	return offer, nil
}

// AcceptTradeOffer consumes an offer and creates the recurring deal for its
// offered leg: the offer's creator exports, the accepting city imports.
func (r *Region) AcceptTradeOffer(offerID, acceptingCityID string) (*TradeDeal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offerIndex[offerID]
	if !ok {
		return nil, ErrNotFound
	}
	importer, ok := r.cityIndex[acceptingCityID]
	if !ok {
		return nil, ErrNotFound
	}
	if offer.FromCityID == acceptingCityID {
		return nil, ErrSameCity
	}
	exporter := r.cityIndex[offer.FromCityID]

	duration := tuning.DefaultDealCycles
	perCycle := (offer.OfferedAmount + int64(duration) - 1) / int64(duration)

	deal := &TradeDeal{
		ID:              uuid.NewString(),
		ExporterID:      offer.FromCityID,
		ImporterID:      acceptingCityID,
		Resource:        offer.Offered,
		AmountPerCycle:  perCycle,
		TotalAmount:     offer.OfferedAmount,
		DurationCycles:  duration,
		CyclesRemaining: duration,
	}
	r.removeOffer(offerID)
	r.deals = append(r.deals, deal)
	r.dealIndex[deal.ID] = deal
	r.emit("trade", fmt.Sprintf("%s and %s struck a deal: %d %s over %d cycles",
		exporter.Name, importer.Name, deal.TotalAmount, deal.Resource, duration))
	return deal, nil
}

// WithdrawTradeOffer removes an open offer. Only the creator may withdraw.
func (r *Region) WithdrawTradeOffer(offerID, cityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offerIndex[offerID]
	if !ok || offer.FromCityID != cityID {
		return ErrNotFound
	}
	r.removeOffer(offerID)
	r.emit("trade", "trade offer withdrawn")
	return nil
}

// CancelTradeDeal removes a deal unconditionally; either participant may
// cancel. Distinct from completion, which happens when the deal runs out of
// cycles.
func (r *Region) CancelTradeDeal(dealID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deal, ok := r.dealIndex[dealID]
	if !ok {
		return ErrNotFound
	}
	r.removeDeal(dealID)
	r.emit("trade", fmt.Sprintf("trade deal for %s cancelled", deal.Resource))
	return nil
}

// Offers returns open offers in creation order.
func (r *Region) Offers() []TradeOffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TradeOffer, len(r.offers))
	for i, o := range r.offers {
		out[i] = *o
	}
	return out
}

// Deals returns active deals in creation order.
func (r *Region) Deals() []TradeDeal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TradeDeal, len(r.deals))
	for i, d := range r.deals {
		out[i] = *d
	}
	return out
}

// settleDeals applies every active deal for the cycle as one batch, in
// deal-creation order, so ledger and stock results are deterministic and
// replayable. Completed deals are removed after the batch. Callers hold the
// region lock.
func (r *Region) settleDeals() {
	var completed []string
	for _, deal := range r.deals {
		exporter, okE := r.cityIndex[deal.ExporterID]
		importer, okI := r.cityIndex[deal.ImporterID]
		if !okE || !okI {
			continue
		}

		due := deal.AmountPerCycle
		if remaining := deal.TotalAmount - deal.Shipped; due > remaining {
			due = remaining
		}
		shipped := r.transfer(exporter, importer, deal.Resource, due)
		deal.Shipped += shipped

		deal.CyclesRemaining--
		if deal.CyclesRemaining <= 0 {
			completed = append(completed, deal.ID)
			r.emit("trade", fmt.Sprintf("trade deal between %s and %s completed (%d %s shipped)",
				exporter.Name, importer.Name, deal.Shipped, deal.Resource))
		}
	}
	for _, id := range completed {
		r.removeDeal(id)
	}
}

// transfer moves a resource between cities, capped at the exporter's
// available stock (or balance, for funds). Returns the amount moved.
func (r *Region) transfer(exporter, importer *CitySlot, res Resource, amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if res == ResourceFunds {
		if bal := exporter.Ledger.Balance(); amount > bal {
			if bal <= 0 {
				return 0
			}
			amount = bal
		}
		exporter.Ledger.Charge(amount)
		importer.Ledger.Charge(-amount)
		return amount
	}
	if stock := exporter.Stock[res]; amount > stock {
		amount = stock
	}
	if amount <= 0 {
		return 0
	}
	exporter.Stock[res] -= amount
	importer.Stock[res] += amount
	return amount
}

func (r *Region) removeOffer(id string) {
	delete(r.offerIndex, id)
	for i, o := range r.offers {
		if o.ID == id {
			r.offers = append(r.offers[:i], r.offers[i+1:]...)
			return
		}
	}
}

func (r *Region) removeDeal(id string) {
	delete(r.dealIndex, id)
	for i, d := range r.deals {
		if d.ID == id {
			r.deals = append(r.deals[:i], r.deals[i+1:]...)
			return
		}
	}
}
