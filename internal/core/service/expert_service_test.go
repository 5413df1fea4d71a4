package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

func newExpertFixture() (*ExpertService, *stubExpertRepo, *stubEarningRepo, *stubDirectoryCache) {
	users := newStubUserRepo(
		&domain.User{ID: techA.ID, FirstName: "Ana", Role: domain.RoleTechnician},
		&domain.User{ID: techB.ID, FirstName: "Ben", Role: domain.RoleTechnician},
		&domain.User{ID: teacher.ID, FirstName: "Tina", Role: domain.RoleTeacher},
		&domain.User{ID: student.ID, FirstName: "Sam", Role: domain.RoleStudent},
	)
	experts := newStubExpertRepo()
	now := time.Now().UTC()
	for _, a := range []domain.Actor{techA, techB, teacher} {
		experts.put(domain.NewExpertProfile(a.ID, a.Role, now))
	}
	earnings := &stubEarningRepo{}
	cache := newStubDirectoryCache()
	return NewExpertService(users, experts, earnings, cache, discardLogger), experts, earnings, cache
}

func TestExpertService_Directory_CachesListings(t *testing.T) {
	svc, _, _, cache := newExpertFixture()

	listings, err := svc.Directory(context.Background(), domain.RoleTechnician)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 technicians, got %d", len(listings))
	}
	for _, l := range listings {
		if l.Profile == nil {
			t.Errorf("expected inlined profile for %s", l.ID)
		}
	}
	if _, ok := cache.entries[domain.RoleTechnician]; !ok {
		t.Error("expected listings to be cached")
	}

	cache.entries[domain.RoleTechnician] = []ports.ExpertListing{{ID: "cached"}}
	listings, _ = svc.Directory(context.Background(), domain.RoleTechnician)
	if len(listings) != 1 || listings[0].ID != "cached" {
		t.Errorf("expected cache hit, got %+v", listings)
	}
}

func TestExpertService_Directory_CacheErrorFallsBack(t *testing.T) {
	svc, _, _, cache := newExpertFixture()
	cache.getErr = errors.New("redis down")

	listings, err := svc.Directory(context.Background(), domain.RoleTeacher)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(listings) != 1 || listings[0].ID != teacher.ID {
		t.Errorf("unexpected listings: %+v", listings)
	}
}

func TestExpertService_Directory_InvalidRole(t *testing.T) {
	svc, _, _, _ := newExpertFixture()
	if _, err := svc.Directory(context.Background(), domain.RoleStudent); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExpertService_Earnings_Dashboard(t *testing.T) {
	svc, experts, earnings, _ := newExpertFixture()
	_ = experts.IncrementCompleted(context.Background(), techA.ID, time.Now())
	earnings.records = []*domain.EarningRecord{
		{ID: "e1", ExpertID: techA.ID, Amount: "100.50", ServiceType: domain.KindRepair, ServiceID: "r1", IsPaid: true},
		{ID: "e2", ExpertID: techA.ID, Amount: "20", ServiceType: domain.KindRepair, ServiceID: "r2", IsPaid: false},
		{ID: "e3", ExpertID: techA.ID, Amount: "about fifty", ServiceType: domain.KindRepair, ServiceID: "r3", IsPaid: true},
		{ID: "e4", ExpertID: techB.ID, Amount: "999", ServiceType: domain.KindRepair, ServiceID: "r4", IsPaid: true},
	}

	dash, err := svc.Earnings(context.Background(), techA)
	if err != nil {
		t.Fatalf("Earnings: %v", err)
	}
	if dash.Total != "120.50" || dash.Paid != "100.50" || dash.Pending != "20.00" {
		t.Errorf("unexpected sums: total=%s paid=%s pending=%s", dash.Total, dash.Paid, dash.Pending)
	}
	if dash.CompletedServices != 1 {
		t.Errorf("expected 1 completed service, got %d", dash.CompletedServices)
	}
	if len(dash.Transactions) != 3 {
		t.Errorf("expected 3 transactions, got %d", len(dash.Transactions))
	}

	if _, err := svc.Earnings(context.Background(), student); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden for student, got %v", err)
	}
}

func TestExpertService_Earnings_ExactDecimalSums(t *testing.T) {
	svc, _, earnings, _ := newExpertFixture()
	earnings.records = []*domain.EarningRecord{
		{ID: "e1", ExpertID: techA.ID, Amount: "0.1", ServiceType: domain.KindRepair, ServiceID: "r1", IsPaid: true},
		{ID: "e2", ExpertID: techA.ID, Amount: "0.2", ServiceType: domain.KindRepair, ServiceID: "r2", IsPaid: true},
	}

	dash, err := svc.Earnings(context.Background(), techA)
	if err != nil {
		t.Fatalf("Earnings: %v", err)
	}
	if dash.Total != "0.30" || dash.Paid != "0.30" || dash.Pending != "0.00" {
		t.Errorf("unexpected sums: total=%s paid=%s pending=%s", dash.Total, dash.Paid, dash.Pending)
	}
}

func TestExpertService_UpdateExpertProfile(t *testing.T) {
	svc, _, _, cache := newExpertFixture()
	years := 4

	p, err := svc.UpdateExpertProfile(context.Background(), techA, ports.ExpertProfilePatch{
		ExpertiseAreas: strPtr("laptops, phones"), ExperienceYears: &years, HourlyRate: strPtr("35.00"),
	})
	if err != nil {
		t.Fatalf("UpdateExpertProfile: %v", err)
	}
	if p.ExpertiseAreas != "laptops, phones" || p.ExperienceYears != 4 || p.HourlyRate != "35.00" {
		t.Errorf("patch not applied: %+v", p)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != domain.RoleTechnician {
		t.Errorf("expected technician directory invalidation, got %v", cache.invalidated)
	}

	if _, err := svc.UpdateExpertProfile(context.Background(), techA, ports.ExpertProfilePatch{HourlyRate: strPtr("cheap")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.GetExpertProfile(context.Background(), student); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}
