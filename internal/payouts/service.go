// Package payouts recomputes what each vendor is owed for a period, always
// from the relational store and the fee schedule, never from stored totals.
package payouts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/money"
)

const topSellerLimit = 5

// OrderShare is the vendor-side settlement of one order.
type OrderShare struct {
	OrderID         uuid.UUID `json:"order_id"`
	CreatedAt       time.Time `json:"created_at"`
	GrossPence      int64     `json:"gross_pence"`
	CommissionPence int64     `json:"commission_pence"`
	ProcessorPence  int64     `json:"processor_pence"`
	NetPence        int64     `json:"net_pence"`
}

// SellerStat ranks one meal by units sold over the period.
type SellerStat struct {
	MealID       uuid.UUID `json:"meal_id"`
	Name         string    `json:"name"`
	UnitsSold    int       `json:"units_sold"`
	RevenuePence int64     `json:"revenue_pence"`
}

// Report is the full payout aggregation for one vendor and window.
type Report struct {
	VendorID            uuid.UUID    `json:"vendor_id"`
	From                time.Time    `json:"from"`
	To                  time.Time    `json:"to"`
	OrderCount          int          `json:"order_count"`
	GrossPence          int64        `json:"gross_pence"`
	CommissionPence     int64        `json:"commission_pence"`
	ProcessorFeePence   int64        `json:"processor_fee_pence"`
	NetPayoutPence      int64        `json:"net_payout_pence"`
	Orders              []OrderShare `json:"orders"`
	TopSellers          []SellerStat `json:"top_sellers"`
	OrdersByHour        [24]int      `json:"orders_by_hour"`
	PeakHours           []int        `json:"peak_hours"`
	RepeatCustomerRate  float64      `json:"repeat_customer_rate"`
	NegativeNetOrderIDs []uuid.UUID  `json:"negative_net_order_ids,omitempty"`
}

// Service aggregates payout reports.
type Service interface {
	Aggregate(ctx context.Context, vendorID uuid.UUID, from, to time.Time) (*Report, error)
}

// ServiceParams wires the payout service dependencies.
type ServiceParams struct {
	Repo   Repository
	Rates  money.Rates
	Logger *logger.Logger
}

type service struct {
	repo  Repository
	rates money.Rates
	logg  *logger.Logger
}

// NewService builds the payout service, failing fast on missing deps.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payout service requires a repository")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("payout service requires a logger")
	}
	return &service{
		repo:  params.Repo,
		rates: params.Rates,
		logg:  params.Logger,
	}, nil
}

// Aggregate computes commission and processor deductions per order, then sums
// them, so the report totals always reconcile against the per-order lines.
func (s *service) Aggregate(ctx context.Context, vendorID uuid.UUID, from, to time.Time) (*Report, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start must precede period end")
	}

	rows, err := s.repo.ListSettledOrders(ctx, vendorID, from, to)
	if err != nil {
		return nil, err
	}

	report := &Report{
		VendorID: vendorID,
		From:     from,
		To:       to,
	}

	sellerStats := map[uuid.UUID]*SellerStat{}
	ordersByCustomer := map[uuid.UUID]int{}

	for _, order := range rows {
		share := money.ComputeVendorShare(order.SubtotalPence, s.rates)
		line := OrderShare{
			OrderID:         order.ID,
			CreatedAt:       order.CreatedAt,
			GrossPence:      share.GrossPence,
			CommissionPence: share.CommissionPence,
			ProcessorPence:  share.ProcessorPence,
			NetPence:        share.NetPence,
		}
		report.Orders = append(report.Orders, line)
		report.GrossPence += line.GrossPence
		report.CommissionPence += line.CommissionPence
		report.ProcessorFeePence += line.ProcessorPence
		report.NetPayoutPence += line.NetPence
		if line.NetPence < 0 {
			report.NegativeNetOrderIDs = append(report.NegativeNetOrderIDs, order.ID)
		}

		report.OrdersByHour[order.CreatedAt.UTC().Hour()]++
		ordersByCustomer[order.CustomerID]++

		for _, item := range order.Items {
			stat, ok := sellerStats[item.MealID]
			if !ok {
				stat = &SellerStat{MealID: item.MealID, Name: item.Name}
				sellerStats[item.MealID] = stat
			}
			stat.UnitsSold += item.Qty
			stat.RevenuePence += item.TotalPricePence
		}
	}

	report.OrderCount = len(rows)
	report.TopSellers = rankSellers(sellerStats)
	report.PeakHours = peakHours(report.OrdersByHour)
	report.RepeatCustomerRate = repeatRate(ordersByCustomer)

	if len(report.NegativeNetOrderIDs) > 0 {
		logCtx := s.logg.WithVendorID(ctx, vendorID.String())
		s.logg.Warn(logCtx, fmt.Sprintf("%d orders settled with negative net payout", len(report.NegativeNetOrderIDs)))
	}
	return report, nil
}

func rankSellers(stats map[uuid.UUID]*SellerStat) []SellerStat {
	ranked := make([]SellerStat, 0, len(stats))
	for _, stat := range stats {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].UnitsSold != ranked[j].UnitsSold {
			return ranked[i].UnitsSold > ranked[j].UnitsSold
		}
		if ranked[i].RevenuePence != ranked[j].RevenuePence {
			return ranked[i].RevenuePence > ranked[j].RevenuePence
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topSellerLimit {
		ranked = ranked[:topSellerLimit]
	}
	return ranked
}

func peakHours(byHour [24]int) []int {
	max := 0
	for _, count := range byHour {
		if count > max {
			max = count
		}
	}
	if max == 0 {
		return nil
	}
	var peaks []int
	for hour, count := range byHour {
		if count == max {
			peaks = append(peaks, hour)
		}
	}
	return peaks
}

func repeatRate(ordersByCustomer map[uuid.UUID]int) float64 {
	if len(ordersByCustomer) == 0 {
		return 0
	}
	repeat := 0
	for _, count := range ordersByCustomer {
		if count >= 2 {
			repeat++
		}
	}
	return float64(repeat) / float64(len(ordersByCustomer))
}
