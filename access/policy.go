package access

import "github.com/google/uuid"

type ResourceKind string

const (
	KindCourse     ResourceKind = "course"
	KindAssignment ResourceKind = "assignment"
)

// ResourceRef names the resource a caller asked for.
type ResourceRef struct {
	Kind ResourceKind
	ID   uuid.UUID
}

func CourseRef(id uuid.UUID) ResourceRef { return ResourceRef{Kind: KindCourse, ID: id} }

func AssignmentRef(id uuid.UUID) ResourceRef { return ResourceRef{Kind: KindAssignment, ID: id} }

// CourseAccess holds the course fields every access rule reads.
type CourseAccess struct {
	ID           uuid.UUID
	InstructorID uuid.UUID
	IsPublished  bool
	Price        float64
}

// Target is a fetched resource. Course is always fully populated; for an assignment it is the parent course.
type Target struct {
	Ref    ResourceRef
	Course CourseAccess
}

// Entitlement is what a student holds for a course. The two flags are looked up independently.
type Entitlement struct {
	HasCompletedPayment bool
	IsEnrolled          bool
}

type Policy struct {
	// OwnerBypassesPublishGate grants the owning instructor access to an unpublished course.
	OwnerBypassesPublishGate bool
}

// Evaluate decides access without doing any I/O. Rules are checked in order and the first match wins.
func (p Policy) Evaluate(target *Target, caller Caller, ent Entitlement) Decision {
	if target == nil {
		return Hide()
	}

	course := target.Course
	isOwner := caller.Role == RoleInstructor && !caller.IsAnonymous() && caller.ID == course.InstructorID

	if !course.IsPublished {
		if p.OwnerBypassesPublishGate && isOwner {
			return Grant()
		}
		return Hide()
	}

	if caller.IsAnonymous() {
		return Deny(ReasonAuthenticationRequired)
	}

	switch caller.Role {
	case RoleInstructor:
		if !isOwner {
			return Deny(ReasonNotYourCourse)
		}
		return Grant()
	case RoleStudent:
		if course.Price > 0 && !ent.HasCompletedPayment {
			return Deny(ReasonPaymentRequired)
		}
		if !ent.IsEnrolled {
			return Deny(ReasonNotEnrolled)
		}
		return Grant()
	default:
		return Deny(ReasonAuthenticationRequired)
	}
}

// needsEntitlement reports whether Evaluate can reach the student rules for this target and caller.
func needsEntitlement(target *Target, caller Caller) bool {
	return target != nil && target.Course.IsPublished && caller.Role == RoleStudent && !caller.IsAnonymous()
}
