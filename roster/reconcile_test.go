package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testCombos = []WeaponCombination{
	{Role: "Tank", Weapon1: "sns", Weapon2: "greatsword"},
	{Role: "Healer", Weapon1: "staff", Weapon2: "wand"},
}

func TestNormalizeWeaponsSortsAndUppercases(t *testing.T) {
	valid := ValidWeaponSet(testCombos)
	norm, ok := NormalizeWeapons("greatsword/sns", valid)
	assert.True(t, ok)
	assert.Equal(t, "GREATSWORD/SNS", norm)
}

func TestNormalizeWeaponsAcceptsCommaSeparator(t *testing.T) {
	valid := ValidWeaponSet(testCombos)
	norm, ok := NormalizeWeapons("staff,wand", valid)
	assert.True(t, ok)
	assert.Equal(t, "STAFF/WAND", norm)
}

func TestNormalizeWeaponsRejectsUnknownToken(t *testing.T) {
	valid := ValidWeaponSet(testCombos)
	norm, ok := NormalizeWeapons("staff/dagger", valid)
	assert.False(t, ok)
	assert.Equal(t, "NULL", norm)
}

func TestNormalizeWeaponsRejectsWrongCardinality(t *testing.T) {
	valid := ValidWeaponSet(testCombos)
	norm, ok := NormalizeWeapons("staff/wand/dagger", valid)
	assert.False(t, ok)
	assert.Equal(t, "NULL", norm)
}

func TestDeriveClassFindsMatchingRole(t *testing.T) {
	assert.Equal(t, "Tank", DeriveClass("GREATSWORD/SNS", testCombos))
}

func TestDeriveClassUnknownPairIsNull(t *testing.T) {
	assert.Equal(t, "NULL", DeriveClass("DAGGER/STAFF", testCombos))
}

func TestBaseLanguageStripsRegion(t *testing.T) {
	assert.Equal(t, "en", BaseLanguage("en-US"))
	assert.Equal(t, "fr", BaseLanguage("fr"))
}

func newDiffFixture() (map[int64]LiveMember, map[int64]Member, map[int64]OnboardingSetup) {
	actual := map[int64]LiveMember{
		1: {MemberID: 1, DisplayName: "Alice"},
		2: {MemberID: 2, DisplayName: "Bob"},
	}
	dbMembers := map[int64]Member{
		1: {MemberID: 1, Username: "Alice", Language: "en", GS: 1000, Weapons: "NULL", Class: "NULL"},
		3: {MemberID: 3, Username: "Carol", Language: "en"},
	}
	setups := map[int64]OnboardingSetup{
		1: {Locale: "en", GS: 1000, Weapons: "NULL"},
		2: {Locale: "en-US", GS: 1200, Weapons: "greatsword/sns"},
	}
	return actual, dbMembers, setups
}

func TestDiffComputesDeleteUpdateInsert(t *testing.T) {
	r := &Reconciler{}
	actual, dbMembers, setups := newDiffFixture()

	toDelete, toUpdate, toInsert := r.Diff(actual, dbMembers, setups, "en-US", testCombos)

	assert.Equal(t, []int64{3}, toDelete)
	assert.Empty(t, toUpdate) // Alice unchanged: no onboarding setup override
	assert.Len(t, toInsert, 1)
	assert.Equal(t, int64(2), toInsert[0].MemberID)
	assert.Equal(t, "GREATSWORD/SNS", toInsert[0].Weapons)
	assert.Equal(t, "Tank", toInsert[0].Class)
	assert.Equal(t, "en", toInsert[0].Language)
}

func TestDiffDetectsFieldChanges(t *testing.T) {
	r := &Reconciler{}
	actual := map[int64]LiveMember{1: {MemberID: 1, DisplayName: "Alice2"}}
	dbMembers := map[int64]Member{1: {MemberID: 1, Username: "Alice", Language: "en"}}
	setups := map[int64]OnboardingSetup{}

	_, toUpdate, _ := r.Diff(actual, dbMembers, setups, "en-US", testCombos)

	assert.Len(t, toUpdate, 1)
	assert.Equal(t, int64(1), toUpdate[0].MemberID)
	found := false
	for _, c := range toUpdate[0].Changes {
		if c.Field == "username" {
			found = true
			assert.Equal(t, "Alice2", c.Value)
		}
	}
	assert.True(t, found)
}
