package model

import "testing"

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestResolveEffective(t *testing.T) {
	workshop := &Workshop{
		ID:              1,
		PriceCents:      2500,
		MaxParticipants: 10,
		AddressID:       int64Ptr(7),
		InstructorID:    int64Ptr(3),
	}

	tests := []struct {
		name  string
		cycle *WorkshopCycle
		want  EffectiveSettings
	}{
		{
			name:  "no overrides fall through to workshop defaults",
			cycle: &WorkshopCycle{WorkshopID: 1},
			want: EffectiveSettings{
				MaxParticipants: 10,
				PriceCents:      2500,
				AddressID:       int64Ptr(7),
				InstructorID:    int64Ptr(3),
			},
		},
		{
			name: "capacity override wins",
			cycle: &WorkshopCycle{
				WorkshopID:              1,
				MaxParticipantsOverride: intPtr(4),
			},
			want: EffectiveSettings{
				MaxParticipants: 4,
				PriceCents:      2500,
				AddressID:       int64Ptr(7),
				InstructorID:    int64Ptr(3),
			},
		},
		{
			name: "zero override is a real value, not absence",
			cycle: &WorkshopCycle{
				WorkshopID:              1,
				MaxParticipantsOverride: intPtr(0),
			},
			want: EffectiveSettings{
				MaxParticipants: 0,
				PriceCents:      2500,
				AddressID:       int64Ptr(7),
				InstructorID:    int64Ptr(3),
			},
		},
		{
			name: "address and instructor overrides",
			cycle: &WorkshopCycle{
				WorkshopID:           1,
				AddressOverrideID:    int64Ptr(11),
				InstructorOverrideID: int64Ptr(5),
			},
			want: EffectiveSettings{
				MaxParticipants: 10,
				PriceCents:      2500,
				AddressID:       int64Ptr(11),
				InstructorID:    int64Ptr(5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEffective(tt.cycle, workshop)
			if got.MaxParticipants != tt.want.MaxParticipants {
				t.Errorf("MaxParticipants = %d, want %d", got.MaxParticipants, tt.want.MaxParticipants)
			}
			if got.PriceCents != tt.want.PriceCents {
				t.Errorf("PriceCents = %d, want %d", got.PriceCents, tt.want.PriceCents)
			}
			if !ptrEq(got.AddressID, tt.want.AddressID) {
				t.Errorf("AddressID = %v, want %v", deref(got.AddressID), deref(tt.want.AddressID))
			}
			if !ptrEq(got.InstructorID, tt.want.InstructorID) {
				t.Errorf("InstructorID = %v, want %v", deref(got.InstructorID), deref(tt.want.InstructorID))
			}
		})
	}
}

func TestCapacityLimited(t *testing.T) {
	tests := []struct {
		max  int
		want bool
	}{
		{max: 5, want: true},
		{max: 1, want: true},
		{max: 0, want: false},
		{max: -3, want: false},
	}
	for _, tt := range tests {
		eff := EffectiveSettings{MaxParticipants: tt.max}
		if got := eff.CapacityLimited(); got != tt.want {
			t.Errorf("CapacityLimited() with max %d = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func ptrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
