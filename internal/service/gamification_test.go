package service_test

import (
	"context"
	"testing"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"
	"github.com/boddenberg/runway-bfa/internal/service"
)

func earnedKeys(p service.Progress) map[string]bool {
	keys := map[string]bool{}
	for _, a := range p.Achievements {
		if a.Earned {
			keys[a.Key] = true
		}
	}
	return keys
}

func TestEvaluateAchievements_Empty(t *testing.T) {
	p := service.EvaluateAchievements(&service.Dashboard{Accounts: domain.GroupAccounts(nil)})
	if p.Points != 0 || p.Level != 1 {
		t.Errorf("expected level 1 with no points, got %+v", p)
	}
	if len(p.Achievements) == 0 {
		t.Error("expected every achievement listed, earned or not")
	}
}

func TestEvaluateAchievements_Levels(t *testing.T) {
	d := &service.Dashboard{
		Accounts: domain.GroupAccounts([]domain.Account{
			{Category: domain.CategoryCredit, Balance: 50, CreditLimit: ptr(1000.0)},
			{Category: domain.CategoryLoans, Balance: 900, IsPaidOff: true},
		}),
		Runway:       projection.RunwayResult{Months: 6.5},
		Utilization:  5,
		Totals:       projection.Totals{NetWorth: 10},
		IncomeEvents: 2,
	}

	p := service.EvaluateAchievements(d)
	got := earnedKeys(p)
	for _, key := range []string{"runway_1", "runway_3", "runway_6", "low_utilization", "debt_paid_off", "positive_net_worth", "income_scheduled"} {
		if !got[key] {
			t.Errorf("expected %s earned", key)
		}
	}
	if got["runway_12"] {
		t.Error("runway_12 should not be earned at 6.5 months")
	}
	// 10 + 25 + 50 + 50 + 25 + 50 + 10
	if p.Points != 220 || p.Level != 3 {
		t.Errorf("expected 220 points / level 3, got %d / %d", p.Points, p.Level)
	}
}

func TestEvaluateAchievements_LowUtilizationNeedsCredit(t *testing.T) {
	d := &service.Dashboard{Accounts: domain.GroupAccounts(nil), Utilization: 0}
	if earnedKeys(service.EvaluateAchievements(d))["low_utilization"] {
		t.Error("no credit accounts should not earn low_utilization")
	}
}

func TestAchievements_FromDashboard(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	seed(t, svc)

	p, err := svc.Achievements(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got := earnedKeys(*p)
	if !got["runway_3"] || got["runway_6"] {
		t.Errorf("expected runway_3 but not runway_6 at 3.0 months, got %v", got)
	}
	if !got["positive_net_worth"] {
		t.Error("expected positive_net_worth")
	}
}
