package model

// EffectiveSettings is the result of applying the cycle-over-workshop
// override chain. All read paths that need the real capacity, venue or
// instructor of a cycle go through ResolveEffective so the precedence rule
// lives in exactly one place.
type EffectiveSettings struct {
	MaxParticipants int
	PriceCents      int64
	AddressID       *int64
	InstructorID    *int64
}

// ResolveEffective computes the effective settings for a cycle: the cycle's
// override when set, otherwise the workshop default. Price has no per-cycle
// override and always comes from the workshop.
func ResolveEffective(cycle *WorkshopCycle, workshop *Workshop) EffectiveSettings {
	eff := EffectiveSettings{
		MaxParticipants: workshop.MaxParticipants,
		PriceCents:      workshop.PriceCents,
		AddressID:       workshop.AddressID,
		InstructorID:    workshop.InstructorID,
	}

	if cycle.MaxParticipantsOverride != nil {
		eff.MaxParticipants = *cycle.MaxParticipantsOverride
	}
	if cycle.AddressOverrideID != nil {
		eff.AddressID = cycle.AddressOverrideID
	}
	if cycle.InstructorOverrideID != nil {
		eff.InstructorID = cycle.InstructorOverrideID
	}

	return eff
}

// CapacityLimited reports whether the capacity ceiling applies at all.
// A non-positive max means unlimited seats, not a full cycle.
func (e EffectiveSettings) CapacityLimited() bool {
	return e.MaxParticipants > 0
}
