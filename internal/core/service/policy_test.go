package service

import (
	"errors"
	"testing"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

func requestIn(status domain.RequestStatus, assignee string) *domain.ServiceRequest {
	return &domain.ServiceRequest{ID: "r1", OwnerID: student.ID, AssigneeID: assignee, Status: status}
}

func TestPolicies(t *testing.T) {
	d := domain.RepairDomain
	tests := []struct {
		name  string
		check func() error
		allow bool
	}{
		{"create student", func() error { return canCreateRequest(d, student) }, true},
		{"create technician", func() error { return canCreateRequest(d, techA) }, false},
		{"list technician", func() error { return canListRequests(d, techA) }, true},
		{"list teacher", func() error { return canListRequests(d, teacher) }, false},

		{"view owner", func() error { return canViewRequest(d, student, requestIn(domain.StatusAssigned, techA.ID)) }, true},
		{"view open by technician", func() error { return canViewRequest(d, techB, requestIn(domain.StatusPending, "")) }, true},
		{"view open by teacher", func() error { return canViewRequest(d, teacher, requestIn(domain.StatusPending, "")) }, false},
		{"view assigned by other technician", func() error { return canViewRequest(d, techB, requestIn(domain.StatusAssigned, techA.ID)) }, false},

		{"claim open", func() error { return canClaimRequest(d, techA, requestIn(domain.StatusPending, "")) }, true},
		{"claim assigned", func() error { return canClaimRequest(d, techB, requestIn(domain.StatusAssigned, techA.ID)) }, false},
		{"claim by student", func() error { return canClaimRequest(d, student, requestIn(domain.StatusPending, "")) }, false},

		{"patch owner pending", func() error { return canPatchRequest(d, student, requestIn(domain.StatusPending, "")) }, true},
		{"patch owner assigned", func() error { return canPatchRequest(d, student, requestIn(domain.StatusAssigned, techA.ID)) }, false},
		{"patch assignee", func() error { return canPatchRequest(d, techA, requestIn(domain.StatusInProgress, techA.ID)) }, true},
		{"patch stranger", func() error { return canPatchRequest(d, techB, requestIn(domain.StatusAssigned, techA.ID)) }, false},

		{"start assignee", func() error { return canStartRequest(d, techA, requestIn(domain.StatusAssigned, techA.ID)) }, true},
		{"start twice", func() error { return canStartRequest(d, techA, requestIn(domain.StatusInProgress, techA.ID)) }, false},

		{"complete from assigned", func() error { return canCompleteRequest(d, techA, requestIn(domain.StatusAssigned, techA.ID)) }, true},
		{"complete from in_progress", func() error { return canCompleteRequest(d, techA, requestIn(domain.StatusInProgress, techA.ID)) }, true},
		{"complete completed", func() error { return canCompleteRequest(d, techA, requestIn(domain.StatusCompleted, techA.ID)) }, false},
		{"complete cancelled", func() error { return canCompleteRequest(d, techA, requestIn(domain.StatusCancelled, techA.ID)) }, false},
		{"complete by owner", func() error { return canCompleteRequest(d, student, requestIn(domain.StatusAssigned, techA.ID)) }, false},

		{"resolve assignee", func() error { return canResolveRequest(d, techA, requestIn(domain.StatusInProgress, techA.ID)) }, true},
		{"resolve finished", func() error { return canResolveRequest(d, techA, requestIn(domain.StatusCompleted, techA.ID)) }, false},

		{"message owner", func() error { return canMessageRequest(d, student, requestIn(domain.StatusPending, "")) }, true},
		{"message assignee", func() error { return canMessageRequest(d, techA, requestIn(domain.StatusAssigned, techA.ID)) }, true},
		{"message unassigned expert", func() error { return canMessageRequest(d, techB, requestIn(domain.StatusPending, "")) }, false},

		{"resolution owner", func() error { return canViewResolution(d, student, requestIn(domain.StatusCompleted, techA.ID)) }, true},
		{"resolution stranger", func() error { return canViewResolution(d, other, requestIn(domain.StatusCompleted, techA.ID)) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.allow && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tt.allow && !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestServiceDomain_CanTransition(t *testing.T) {
	tests := []struct {
		d        domain.ServiceDomain
		from, to domain.RequestStatus
		want     bool
	}{
		{domain.RepairDomain, domain.StatusPending, domain.StatusAssigned, true},
		{domain.RepairDomain, domain.StatusPending, domain.StatusInProgress, false},
		{domain.RepairDomain, domain.StatusAssigned, domain.StatusCompleted, true},
		{domain.RepairDomain, domain.StatusInProgress, domain.StatusAssigned, false},
		{domain.RepairDomain, domain.StatusInProgress, domain.StatusCancelled, true},
		{domain.RepairDomain, domain.StatusCompleted, domain.StatusCancelled, false},
		{domain.RepairDomain, domain.StatusAssigned, domain.StatusAnswered, false},
		{domain.AcademicDomain, domain.StatusAssigned, domain.StatusAnswered, true},
		{domain.AcademicDomain, domain.StatusPending, domain.StatusCancelled, false},
		{domain.AcademicDomain, domain.StatusAnswered, domain.StatusInProgress, false},
	}
	for _, tt := range tests {
		if got := tt.d.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("%s: %s -> %s = %v, want %v", tt.d.Kind, tt.from, tt.to, got, tt.want)
		}
	}
}
