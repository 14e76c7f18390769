// Package roster reconciles the live chat-platform roster against the
// store's guild_members snapshot (spec §4.E).
package roster

// Member is the store-side snapshot of one guild member row.
type Member struct {
	MemberID      int64  `db:"member_id"`
	Username      string `db:"username"`
	Language      string `db:"language"`
	GS            int    `db:"GS"`
	Build         string `db:"build"`
	Weapons       string `db:"weapons"`
	Class         string `db:"class"`
	DKP           int    `db:"DKP"`
	NbEvents      int    `db:"nb_events"`
	Registrations int    `db:"registrations"`
	Attendances   int    `db:"attendances"`
}

// OnboardingSetup is the per-user onboarding snapshot (user_setup table)
// consulted when a member has no store row yet, or to refresh weapons/GS.
type OnboardingSetup struct {
	Locale  string
	GS      int
	Weapons string
	Build   string
}

// LiveMember is the chat-platform-side view of a roster candidate, already
// filtered to bots-excluded members carrying a configured role.
type LiveMember struct {
	MemberID    int64
	DisplayName string
}

// FieldChange is one (column, value) pair of an update statement. Column
// names are restricted to allowedUpdateFields (roster §4.E "field
// allow-list MUST be enforced").
type FieldChange struct {
	Field string
	Value interface{}
}

// MemberUpdate pairs a member id with its computed change set.
type MemberUpdate struct {
	MemberID int64
	Changes  []FieldChange
}

// allowedUpdateFields is the closed set of columns a diff may SET. Any
// field outside this set is a programming error, not a runtime choice.
var allowedUpdateFields = map[string]bool{
	"username":      true,
	"language":      true,
	"GS":            true,
	"build":         true,
	"weapons":       true,
	"DKP":           true,
	"nb_events":     true,
	"registrations": true,
	"attendances":   true,
	"class":         true,
}
