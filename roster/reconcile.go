package roster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romaingrosos/myguildmanager-core/cache"
	"github.com/romaingrosos/myguildmanager-core/store"
)

// totalOperationsAdvisoryCap is logged-but-not-refused when exceeded
// (spec §4.E "total operations cap is advisory").
const totalOperationsAdvisoryCap = 1000

// Reconciler diffs the live chat-platform roster against the store
// snapshot and applies the result as a single transactional batch.
type Reconciler struct {
	store *store.Gateway
	cache *cache.Engine
	log   zerolog.Logger
}

// New constructs a Reconciler bound to gw and ce.
func New(gw *store.Gateway, ce *cache.Engine, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: gw, cache: ce, log: log.With().Str("component", "roster").Logger()}
}

// Diff computes (to_delete, to_update, to_insert) per spec §4.E steps 1-6.
// actual is the live roster already filtered to bots-excluded members
// carrying a configured role. dbMembers is the current store snapshot.
// setups is the onboarding snapshot keyed by member id. guildLocale is the
// guild's configured default language.
func (r *Reconciler) Diff(
	actual map[int64]LiveMember,
	dbMembers map[int64]Member,
	setups map[int64]OnboardingSetup,
	guildLocale string,
	combos []WeaponCombination,
) (toDelete []int64, toUpdate []MemberUpdate, toInsert []Member) {
	validWeapons := ValidWeaponSet(combos)

	for memberID := range dbMembers {
		if _, ok := actual[memberID]; !ok {
			toDelete = append(toDelete, memberID)
		}
	}

	for memberID, live := range actual {
		setup := setups[memberID]
		weapons, _ := NormalizeWeapons(setup.Weapons, validWeapons)
		class := normalizedNull
		if weapons != normalizedNull {
			class = DeriveClass(weapons, combos)
		}

		language := setup.Locale
		if language == "" {
			language = guildLocale
		}
		language = BaseLanguage(language)

		gs := setup.GS
		if gs < 0 {
			gs = 0
		}

		if dbMember, exists := dbMembers[memberID]; exists {
			var changes []FieldChange
			if dbMember.Username != live.DisplayName {
				changes = append(changes, FieldChange{"username", live.DisplayName})
			}
			if dbMember.Language != language {
				changes = append(changes, FieldChange{"language", language})
			}
			if dbMember.GS != gs {
				changes = append(changes, FieldChange{"GS", gs})
			}
			if dbMember.Build != setup.Build {
				changes = append(changes, FieldChange{"build", setup.Build})
			}
			if dbMember.Weapons != weapons {
				changes = append(changes, FieldChange{"weapons", weapons})
			}
			if dbMember.Class != class {
				changes = append(changes, FieldChange{"class", class})
			}
			if len(changes) > 0 {
				toUpdate = append(toUpdate, MemberUpdate{MemberID: memberID, Changes: changes})
			}
		} else {
			toInsert = append(toInsert, Member{
				MemberID: memberID,
				Username: live.DisplayName,
				Language: language,
				GS:       gs,
				Build:    setup.Build,
				Weapons:  weapons,
				Class:    class,
			})
		}
	}

	return toDelete, toUpdate, toInsert
}

// Apply builds and executes a single transactional batch implementing the
// diff: one delete, N allow-listed updates, N upsert inserts (spec §4.E
// step 7). On success it invalidates roster_data and lets the one-hop rule
// graph cascade into events_data. On failure it returns (0,0,0) and leaves
// the cache untouched (spec §4.E "Failure semantics").
func (r *Reconciler) Apply(ctx context.Context, guildID int64, toDelete []int64, toUpdate []MemberUpdate, toInsert []Member) (deleted, updated, inserted int, err error) {
	total := len(toDelete) + len(toUpdate) + len(toInsert)
	if total > totalOperationsAdvisoryCap {
		r.log.Warn().Int64("guild_id", guildID).Int("operations", total).Msg("large roster batch")
	}
	if total == 0 {
		return 0, 0, 0, nil
	}

	var stmts []store.Statement

	if len(toDelete) > 0 {
		placeholders := make([]interface{}, 0, len(toDelete)+1)
		placeholders = append(placeholders, guildID)
		inClause := ""
		for i, id := range toDelete {
			if i > 0 {
				inClause += ","
			}
			inClause += "?"
			placeholders = append(placeholders, id)
		}
		sql := fmt.Sprintf("DELETE FROM guild_members WHERE guild_id = ? AND member_id IN (%s)", inClause)
		stmts = append(stmts, store.Statement{SQL: sql, Params: placeholders})
	}

	for _, upd := range toUpdate {
		setClauses := ""
		params := make([]interface{}, 0, len(upd.Changes)+2)
		for i, c := range upd.Changes {
			if !allowedUpdateFields[c.Field] {
				return 0, 0, 0, fmt.Errorf("roster: disallowed update field %q", c.Field)
			}
			if i > 0 {
				setClauses += ", "
			}
			setClauses += fmt.Sprintf("%s = ?", c.Field)
			params = append(params, c.Value)
		}
		sql := fmt.Sprintf("UPDATE guild_members SET %s WHERE guild_id = ? AND member_id = ?", setClauses)
		params = append(params, guildID, upd.MemberID)
		stmts = append(stmts, store.Statement{SQL: sql, Params: params})
	}

	const insertSQL = `
		INSERT INTO guild_members
			(guild_id, member_id, username, language, GS, build, weapons, DKP, nb_events, registrations, attendances, ` + "`class`" + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			username = VALUES(username),
			language = VALUES(language),
			GS = VALUES(GS),
			build = VALUES(build),
			weapons = VALUES(weapons),
			DKP = VALUES(DKP),
			nb_events = VALUES(nb_events),
			registrations = VALUES(registrations),
			attendances = VALUES(attendances),
			` + "`class`" + ` = VALUES(` + "`class`" + `)`

	for _, m := range toInsert {
		stmts = append(stmts, store.Statement{
			SQL: insertSQL,
			Params: []interface{}{
				guildID, m.MemberID, m.Username, m.Language, m.GS, m.Build, m.Weapons,
				m.DKP, m.NbEvents, m.Registrations, m.Attendances, m.Class,
			},
		})
	}

	if err := r.store.TransactionalBatch(ctx, stmts); err != nil {
		r.log.Error().Err(err).Int64("guild_id", guildID).Msg("roster batch failed, no partial state applied")
		return 0, 0, 0, err
	}

	r.cache.InvalidateCategory(cache.CategoryRosterData)
	r.cache.InvalidateRelated(cache.CategoryRosterData)
	return len(toDelete), len(toUpdate), len(toInsert), nil
}
