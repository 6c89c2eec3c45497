package service

import (
	"time"

	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// PricingService resolves an authoritative price for an asset at a date.
//
// Resolution order is deliberate: a market observation is authoritative when
// present; the price of the most recent recorded buy is a reasonable proxy
// when it is missing (newly listed or delisted instruments, illiquid
// entries). When neither exists the price is unavailable and callers must
// degrade rather than value the holding at zero.
type PricingService struct {
	priceRepo *repository.PriceRepository
	dealRepo  *repository.DealRepository
}

// NewPricingService creates a new PricingService with the provided dependencies.
func NewPricingService(priceRepo *repository.PriceRepository, dealRepo *repository.DealRepository) *PricingService {
	return &PricingService{priceRepo: priceRepo, dealRepo: dealRepo}
}

// ResolvePrice resolves the price of an asset as of a date.
//
// Cash and category "other" assets are always worth 1.0 at the requested
// date. Otherwise the most recent market observation with date <= asOf wins:
// NAV for open-ended funds, close price for exchange-traded instruments.
// Without an observation the most recent buy price at or before the date is
// used, scoped to the given account when non-empty, across all accounts
// otherwise.
//
// The boolean result is false when no price could be resolved at all; the
// returned price and date are then meaningless and the caller must treat
// the valuation as unavailable.
func (s *PricingService) ResolvePrice(asset model.Asset, asOf time.Time, account string) (float64, time.Time, bool, error) {
	if asset.IsCash() || asset.Category == model.CategoryOther {
		return 1.0, dateOf(asOf), true, nil
	}

	point, found, err := s.priceRepo.Latest(asset.Code, dateOf(asOf))
	if err != nil {
		return 0, time.Time{}, false, err
	}
	if found {
		if asset.IsOpenFund() {
			if point.Nav.Valid {
				return point.Nav.Float64, point.Date, true, nil
			}
		} else if point.Close.Valid {
			return point.Close.Float64, point.Date, true, nil
		}
		// Observation exists but carries no usable field; fall through to
		// the buy-price fallback.
	}

	price, dealTime, found, err := s.dealRepo.LastBuyPrice(asset.Code, account, nextDay(asOf))
	if err != nil {
		return 0, time.Time{}, false, err
	}
	if found {
		return price, dateOf(dealTime), true, nil
	}

	return 0, time.Time{}, false, nil
}
