package service

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// pointsPerLevel is how many achievement points one level takes.
const pointsPerLevel = 100

// Progress is the gamification summary for one user.
type Progress struct {
	Achievements []domain.Achievement `json:"achievements"`
	Points       int                  `json:"points"`
	Level        int                  `json:"level"`
}

type achievementRule struct {
	key         string
	title       string
	description string
	points      int
	earned      func(d *Dashboard) bool
}

func runwayAtLeast(months float64) func(d *Dashboard) bool {
	return func(d *Dashboard) bool { return d.Runway.Months >= months }
}

var achievementRules = []achievementRule{
	{"runway_1", "First Month", "Cash covers one month of expenses", 10, runwayAtLeast(1)},
	{"runway_3", "Cushion", "Cash covers three months of expenses", 25, runwayAtLeast(3)},
	{"runway_6", "Safety Net", "Cash covers six months of expenses", 50, runwayAtLeast(6)},
	{"runway_12", "Full Year", "Cash covers twelve months of expenses", 100, runwayAtLeast(12)},
	{"low_utilization", "Light Touch", "Credit utilization at or below 10%", 50, func(d *Dashboard) bool {
		return hasCreditLimit(d.Accounts[domain.CategoryCredit]) && d.Utilization <= 10
	}},
	{"debt_paid_off", "Paid in Full", "Paid off a credit card or loan", 25, func(d *Dashboard) bool {
		for _, c := range []domain.Category{domain.CategoryCredit, domain.CategoryLoans} {
			for _, a := range d.Accounts[c] {
				if a.IsPaidOff {
					return true
				}
			}
		}
		return false
	}},
	{"positive_net_worth", "In the Black", "Assets exceed liabilities", 50, func(d *Dashboard) bool {
		return d.Totals.NetWorth > 0
	}},
	{"income_scheduled", "Money Incoming", "Scheduled at least one income event", 10, func(d *Dashboard) bool {
		return d.IncomeEvents > 0
	}},
}

func hasCreditLimit(accounts []domain.Account) bool {
	for _, a := range accounts {
		if a.CreditLimit != nil && *a.CreditLimit > 0 {
			return true
		}
	}
	return false
}

// EvaluateAchievements derives badges, points and level from a dashboard.
// Level is 1 + points/100.
func EvaluateAchievements(d *Dashboard) Progress {
	p := Progress{Achievements: make([]domain.Achievement, 0, len(achievementRules))}
	for _, r := range achievementRules {
		earned := r.earned(d)
		if earned {
			p.Points += r.points
		}
		p.Achievements = append(p.Achievements, domain.Achievement{
			Key:         r.key,
			Title:       r.title,
			Description: r.description,
			Points:      r.points,
			Earned:      earned,
		})
	}
	p.Level = 1 + p.Points/pointsPerLevel
	return p
}

// Achievements evaluates the user's current dashboard.
func (s *FinanceService) Achievements(ctx context.Context, userID string) (*Progress, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.Achievements")
	defer span.End()

	d, err := s.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := EvaluateAchievements(d)
	return &p, nil
}
