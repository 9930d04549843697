package access

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Authorizer wires the fetcher and entitlement lookup to a Policy. It keeps no state between calls.
type Authorizer struct {
	fetcher ResourceFetcher
	lookup  EntitlementLookup
	policy  Policy
	logger  *slog.Logger
}

func NewAuthorizer(fetcher ResourceFetcher, lookup EntitlementLookup, policy Policy, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{
		fetcher: fetcher,
		lookup:  lookup,
		policy:  policy,
		logger:  logger,
	}
}

// Authorize returns the access decision for caller on ref. The target is returned with the
// decision so a granted caller does not need a second lookup for the parent course. A non-nil
// error means an infrastructure failure and the decision must be ignored.
func (a *Authorizer) Authorize(ctx context.Context, caller Caller, ref ResourceRef) (Decision, *Target, error) {
	target, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.policy.Evaluate(nil, caller, Entitlement{}), nil, nil
		}
		return Decision{}, nil, err
	}

	var ent Entitlement
	if needsEntitlement(target, caller) {
		ent, err = a.entitlement(ctx, caller, target.Course)
		if err != nil {
			return Decision{}, nil, err
		}
	}

	decision := a.policy.Evaluate(target, caller, ent)
	if !decision.Allowed() {
		a.logger.Debug("access denied",
			"kind", ref.Kind,
			"resource_id", ref.ID,
			"caller_id", caller.ID,
			"role", caller.Role,
			"decision", decision.String(),
		)
	}
	return decision, target, nil
}

func (a *Authorizer) entitlement(ctx context.Context, caller Caller, course CourseAccess) (Entitlement, error) {
	var ent Entitlement
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		paid, err := a.lookup.HasCompletedPayment(gctx, caller.ID, course.ID)
		ent.HasCompletedPayment = paid
		return err
	})
	g.Go(func() error {
		enrolled, err := a.lookup.IsEnrolled(gctx, caller.ID, course.ID)
		ent.IsEnrolled = enrolled
		return err
	})
	if err := g.Wait(); err != nil {
		return Entitlement{}, err
	}
	return ent, nil
}
