package service

import (
	"fmt"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// Authorization policies for the request lifecycle. Each one takes the actor
// and the current request state and returns nil to allow or a forbidden error
// carrying the reason.

func canCreateRequest(d domain.ServiceDomain, actor domain.Actor) error {
	if actor.Role != d.RequesterRole {
		return domain.Forbidden(fmt.Sprintf("only %ss can create a %s", d.RequesterRole, d.RequestNoun))
	}
	return nil
}

func canListRequests(d domain.ServiceDomain, actor domain.Actor) error {
	if actor.Role != d.RequesterRole && actor.Role != d.ExpertRole {
		return domain.Forbidden(fmt.Sprintf("only %ss and %ss can list %ss", d.RequesterRole, d.ExpertRole, d.RequestNoun))
	}
	return nil
}

// canViewRequest allows the owner, the assignee, and any expert of the
// domain role while the request is still open for claiming.
func canViewRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	switch {
	case req.IsOwner(actor.ID), req.IsAssignee(actor.ID):
		return nil
	case actor.Role == d.ExpertRole && claimable(req):
		return nil
	}
	return domain.Forbidden(fmt.Sprintf("you do not have access to this %s", d.RequestNoun))
}

func canClaimRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if actor.Role != d.ExpertRole {
		return domain.Forbidden(fmt.Sprintf("only %ss can take a %s", d.ExpertRole, d.RequestNoun))
	}
	if !claimable(req) {
		return domain.Forbidden(fmt.Sprintf("this %s is no longer available", d.RequestNoun))
	}
	return nil
}

// canPatchRequest lets the owner edit while pending and the assignee edit
// while assigned.
func canPatchRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if req.IsAssignee(actor.ID) {
		return nil
	}
	if req.IsOwner(actor.ID) {
		if req.Status != domain.StatusPending {
			return domain.Forbidden(fmt.Sprintf("a %s can only be edited by its owner while pending", d.RequestNoun))
		}
		return nil
	}
	return domain.Forbidden(fmt.Sprintf("you do not have permission to update this %s", d.RequestNoun))
}

func canStartRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if !req.IsAssignee(actor.ID) {
		return domain.Forbidden(fmt.Sprintf("only the assigned %s can start work", d.ExpertRole))
	}
	if !d.CanTransition(req.Status, domain.StatusInProgress) {
		return domain.Forbidden(fmt.Sprintf("cannot start a %s that is %s", d.RequestNoun, req.Status))
	}
	return nil
}

func canCompleteRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if !req.IsAssignee(actor.ID) {
		return domain.Forbidden(fmt.Sprintf("only the assigned %s can complete this %s", d.ExpertRole, d.RequestNoun))
	}
	if !d.CanTransition(req.Status, d.TerminalStatus) {
		return domain.Forbidden(fmt.Sprintf("cannot complete a %s that is %s", d.RequestNoun, req.Status))
	}
	return nil
}

func canResolveRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if !req.IsAssignee(actor.ID) {
		return domain.Forbidden(fmt.Sprintf("only the assigned %s can provide a %s", d.ExpertRole, d.ResolutionNoun))
	}
	if d.IsTerminal(req.Status) {
		return domain.Forbidden(fmt.Sprintf("this %s is already %s", d.RequestNoun, req.Status))
	}
	return nil
}

func canMessageRequest(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if req.IsOwner(actor.ID) || req.IsAssignee(actor.ID) {
		return nil
	}
	return domain.Forbidden(fmt.Sprintf("you do not have permission to message on this %s", d.RequestNoun))
}

func canViewResolution(d domain.ServiceDomain, actor domain.Actor, req *domain.ServiceRequest) error {
	if req.IsOwner(actor.ID) || req.IsAssignee(actor.ID) {
		return nil
	}
	return domain.Forbidden(fmt.Sprintf("you do not have access to the %s for this %s", d.ResolutionNoun, d.RequestNoun))
}

func claimable(req *domain.ServiceRequest) bool {
	return req.Status == domain.StatusPending && !req.IsAssigned()
}
