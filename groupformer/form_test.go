package groupformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func regs(firstID int64, n int, class Class, baseGS int) []Registrant {
	out := make([]Registrant, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Registrant{MemberID: firstID + int64(i), Class: class, GS: baseGS + i})
	}
	return out
}

func TestFormProducesOnlyGroupsWithinSizeBounds(t *testing.T) {
	var pool []Registrant
	pool = append(pool, regs(1, 4, ClassTank, 1000)...)
	pool = append(pool, regs(5, 4, ClassHealer, 1000)...)
	pool = append(pool, regs(9, 8, ClassMeleeDPS, 1000)...)
	pool = append(pool, regs(17, 8, ClassFlanker, 1000)...)

	f := New()
	groups := f.Form(pool, nil)

	total := 0
	for _, g := range groups {
		assert.LessOrEqual(t, len(g.Members), maxGroupSize)
		total += len(g.Members)
	}
	assert.Equal(t, len(pool), total, "every registrant must end up in exactly one group")
}

func TestFormHandlesEmptyPool(t *testing.T) {
	f := New()
	groups := f.Form(nil, nil)
	assert.Empty(t, groups)
}

func TestFormFixatesStaticGroupAtFullPresence(t *testing.T) {
	pool := []Registrant{
		{MemberID: 1, Class: ClassTank, GS: 1200},
		{MemberID: 2, Class: ClassHealer, GS: 1200},
		{MemberID: 3, Class: ClassMeleeDPS, GS: 1200},
	}
	sg := []StaticGroup{{Name: "Alpha", LeaderID: 1, MemberIDs: []int64{1, 2, 3}}}

	f := New()
	groups := f.Form(pool, sg)

	found := false
	for _, g := range groups {
		ids := map[int64]bool{}
		for _, m := range g.Members {
			ids[m.MemberID] = true
		}
		if ids[1] && ids[2] && ids[3] {
			found = true
		}
	}
	assert.True(t, found, "static group members should end up together")
}

func TestFormIncludesTentativeRegistrants(t *testing.T) {
	pool := []Registrant{
		{MemberID: 1, Class: ClassTank, GS: 1000},
		{MemberID: 2, Class: ClassHealer, GS: 1000},
		{MemberID: 3, Class: ClassMeleeDPS, GS: 1000},
		{MemberID: 4, Class: ClassMeleeDPS, GS: 1000, Tentative: true},
	}
	f := New()
	groups := f.Form(pool, nil)

	total := 0
	for _, g := range groups {
		total += len(g.Members)
	}
	assert.Equal(t, 4, total)
}
