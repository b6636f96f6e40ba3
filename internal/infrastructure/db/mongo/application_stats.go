package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

const defaultTopModules = 5

type statsTotals struct {
	Total             int64   `bson:"total"`
	Week              int64   `bson:"week"`
	Open              int64   `bson:"open"`
	WeekOpen          int64   `bson:"week_open"`
	InProgress        int64   `bson:"in_progress"`
	Approved          int64   `bson:"approved"`
	Rejected          int64   `bson:"rejected"`
	Disbursed         float64 `bson:"disbursed"`
	WeekDisbursed     float64 `bson:"week_disbursed"`
	LastYearDisbursed float64 `bson:"last_year_disbursed"`
}

type statsCustomers struct {
	Total int64 `bson:"total"`
	Week  int64 `bson:"week"`
}

type statsMonth struct {
	Month  int     `bson:"_id"`
	Amount float64 `bson:"amount"`
}

type statsModule struct {
	ModuleID string `bson:"_id"`
	Total    int64  `bson:"total"`
	Week     int64  `bson:"week"`
}

type statsFacets struct {
	Totals    []statsTotals    `bson:"totals"`
	Customers []statsCustomers `bson:"customers"`
	Monthly   []statsMonth     `bson:"monthly"`
	Modules   []statsModule    `bson:"modules"`
}

// Stats runs every dashboard aggregation in a single $facet pass.
func (r *ApplicationRepository) Stats(ctx context.Context, q ports.StatsQuery) (*ports.ApplicationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, statsPipeline(q))
	if err != nil {
		return nil, fmt.Errorf("aggregate application stats: %w", err)
	}
	defer cur.Close(ctx)

	var facets statsFacets
	if cur.Next(ctx) {
		if err := cur.Decode(&facets); err != nil {
			return nil, fmt.Errorf("decode application stats: %w", err)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read application stats: %w", err)
	}
	return facets.toStats(), nil
}

func (f statsFacets) toStats() *ports.ApplicationStats {
	out := &ports.ApplicationStats{ModuleCounts: []ports.ModuleCount{}}
	if len(f.Totals) > 0 {
		t := f.Totals[0]
		out.Total, out.Week = t.Total, t.Week
		out.Open, out.WeekOpen, out.InProgress = t.Open, t.WeekOpen, t.InProgress
		out.Approved, out.Rejected = t.Approved, t.Rejected
		out.Disbursed, out.WeekDisbursed, out.LastYearDisbursed = t.Disbursed, t.WeekDisbursed, t.LastYearDisbursed
	}
	if len(f.Customers) > 0 {
		out.Customers, out.WeekCustomers = f.Customers[0].Total, f.Customers[0].Week
	}
	for _, m := range f.Monthly {
		if m.Month >= 1 && m.Month <= 12 {
			out.MonthlyDisbursed[m.Month-1] = m.Amount
		}
	}
	for _, m := range f.Modules {
		out.ModuleCounts = append(out.ModuleCounts, ports.ModuleCount{ModuleID: m.ModuleID, Total: m.Total, Week: m.Week})
	}
	return out
}

// statsPipeline builds the aggregation behind Stats. Disbursed amounts are
// dated by date_disbursed, falling back to created_at.
func statsPipeline(q ports.StatsQuery) mongo.Pipeline {
	top := q.TopModules
	if top <= 0 {
		top = defaultTopModules
	}

	isDisbursed := bson.M{"$eq": bson.A{"$status", domain.StatusDisbursed}}
	isOpen := bson.M{"$in": bson.A{"$status", domain.OpenStatuses()}}
	inWeek := bson.M{"$gte": bson.A{"$created_at", q.WeekStart}}
	amount := bson.M{"$ifNull": bson.A{"$amount_disbursed", 0}}

	totals := bson.M{
		"_id":         nil,
		"total":       bson.M{"$sum": 1},
		"week":        countIf(inWeek),
		"open":        countIf(isOpen),
		"week_open":   countIf(allOf(isOpen, inWeek)),
		"in_progress": countIf(allOf(isOpen, bson.M{"$ne": bson.A{"$status", domain.StatusNew}})),
		"approved":    countIf(bson.M{"$in": bson.A{"$status", bson.A{domain.StatusApproved, domain.StatusDisbursed}}}),
		"rejected":    countIf(bson.M{"$eq": bson.A{"$status", domain.StatusRejected}}),
		"disbursed":   sumIf(isDisbursed, amount),
		"week_disbursed": sumIf(allOf(isDisbursed,
			bson.M{"$gte": bson.A{"$disbursed_on", q.WeekStart}},
		), amount),
		"last_year_disbursed": sumIf(allOf(isDisbursed,
			bson.M{"$gte": bson.A{"$disbursed_on", q.LastYearStart}},
			bson.M{"$lt": bson.A{"$disbursed_on", q.YearStart}},
		), amount),
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: scopeFilter(q.Scope)}},
		{{Key: "$addFields", Value: bson.M{
			"disbursed_on": bson.M{"$ifNull": bson.A{"$date_disbursed", "$created_at"}},
		}}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{bson.M{"$group": totals}},
			"customers": bson.A{
				bson.M{"$group": bson.M{"_id": "$customer_id", "latest": bson.M{"$max": "$created_at"}}},
				bson.M{"$group": bson.M{
					"_id":   nil,
					"total": bson.M{"$sum": 1},
					"week":  countIf(bson.M{"$gte": bson.A{"$latest", q.WeekStart}}),
				}},
			},
			"monthly": bson.A{
				bson.M{"$match": bson.M{
					"status":       domain.StatusDisbursed,
					"disbursed_on": bson.M{"$gte": q.YearStart, "$lt": q.YearStart.AddDate(1, 0, 0)},
				}},
				bson.M{"$group": bson.M{"_id": bson.M{"$month": "$disbursed_on"}, "amount": bson.M{"$sum": amount}}},
			},
			"modules": bson.A{
				bson.M{"$group": bson.M{
					"_id":   bson.M{"$ifNull": bson.A{"$module_id", ""}},
					"total": bson.M{"$sum": 1},
					"week":  countIf(inWeek),
				}},
				bson.M{"$sort": bson.D{{Key: "total", Value: -1}, {Key: "_id", Value: 1}}},
				bson.M{"$limit": top},
			},
		}}},
	}
}

func countIf(cond any) bson.M {
	return sumIf(cond, 1)
}

func sumIf(cond, value any) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{cond, value, 0}}}
}

func allOf(conds ...any) bson.M {
	return bson.M{"$and": bson.A(conds)}
}
