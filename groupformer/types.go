// Package groupformer builds balanced event groups from a registration
// book and roster projection (spec §4.G).
package groupformer

// Class is the closed set of roles a roster member can be derived into
// (cf. roster.DeriveClass's combinations-table lookup).
type Class string

const (
	ClassTank      Class = "Tank"
	ClassHealer    Class = "Healer"
	ClassMeleeDPS  Class = "Melee DPS"
	ClassRangedDPS Class = "Ranged DPS"
	ClassFlanker   Class = "Flanker"
	ClassUnknown   Class = "NULL"
)

func isDPSFamily(c Class) bool { return c == ClassMeleeDPS || c == ClassRangedDPS }

// Registrant is one pool member eligible for grouping: the roster
// projection (class, GS, weapons) joined against the registration book
// (presence/tentative).
type Registrant struct {
	MemberID  int64
	Class     Class
	GS        int
	Tentative bool
}

// StaticGroup is a configured fixed group, fixed ahead of formation when
// enough of its roster is present (spec §4.G stage 2).
type StaticGroup struct {
	Name      string
	LeaderID  int64
	MemberIDs []int64
}

// GroupMember is one member descriptor in the output of Form.
type GroupMember struct {
	MemberID  int64
	Class     Class
	GS        int
	Tentative bool
}

// Group is one formed group (spec §4.G "ordered list of groups").
type Group struct {
	Members []GroupMember
}

const (
	minGroupSize = 4
	maxGroupSize = 6
)

func (g Group) averageGS() float64 {
	if len(g.Members) == 0 {
		return 0
	}
	total := 0
	for _, m := range g.Members {
		total += m.GS
	}
	return float64(total) / float64(len(g.Members))
}

func (g Group) hasClass(c Class) bool {
	for _, m := range g.Members {
		if m.Class == c {
			return true
		}
	}
	return false
}
