package cacheloader

import (
	"context"
	"strconv"
	"strings"
)

// splitMemberIDs parses a GROUP_CONCAT'd CSV of member ids, skipping blanks.
func splitMemberIDs(csv string) []int64 {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Row types mirror the SELECT projections of cache_loader.py's per-category
// loaders; `db` tags let sqlx scan directly into them via store.Gateway.

type guildSettingsRow struct {
	GuildID     int64  `db:"guild_id"`
	GuildPTB    bool   `db:"guild_ptb"`
	GuildLang   string `db:"guild_lang"`
	GuildName   string `db:"guild_name"`
	GuildGame   int64  `db:"guild_game"`
	GuildServer string `db:"guild_server"`
	Initialized bool   `db:"initialized"`
	Premium     bool   `db:"premium"`
}

func (l *Loader) loadGuildSettings(ctx context.Context) error {
	const query = `SELECT guild_id, guild_ptb, guild_lang, guild_name, guild_game, guild_server, initialized, premium FROM guild_settings`
	var rows []guildSettingsRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}
	for _, r := range rows {
		l.cache.SetGuildData(r.GuildID, "guild_ptb", r.GuildPTB)
		l.cache.SetGuildData(r.GuildID, "guild_lang", r.GuildLang)
		l.cache.SetGuildData(r.GuildID, "guild_name", r.GuildName)
		l.cache.SetGuildData(r.GuildID, "guild_game", r.GuildGame)
		l.cache.SetGuildData(r.GuildID, "guild_server", r.GuildServer)
		l.cache.SetGuildData(r.GuildID, "initialized", r.Initialized)
		l.cache.SetGuildData(r.GuildID, "premium", r.Premium)
		l.cache.SetGuildData(r.GuildID, "settings", r)
	}
	l.log.Info().Int("guilds", len(rows)).Msg("loaded guild settings")
	return nil
}

type guildRolesRow struct {
	GuildID        int64  `db:"guild_id"`
	GuildMaster    string `db:"guild_master"`
	Officer        string `db:"officer"`
	Guardian       string `db:"guardian"`
	Members        string `db:"members"`
	AbsentMembers  string `db:"absent_members"`
	Allies         string `db:"allies"`
	Diplomats      string `db:"diplomats"`
	Friends        string `db:"friends"`
	Applicant      string `db:"applicant"`
	ConfigOK       string `db:"config_ok"`
	RulesOK        string `db:"rules_ok"`
}

func (l *Loader) loadGuildRoles(ctx context.Context) error {
	const query = `SELECT guild_id, guild_master, officer, guardian, members, absent_members, allies, diplomats, friends, applicant, config_ok, rules_ok FROM guild_roles`
	var rows []guildRolesRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}
	for _, r := range rows {
		l.cache.SetGuildData(r.GuildID, "roles", r)
		if r.Members != "" {
			l.cache.SetGuildData(r.GuildID, "members_role", r.Members)
		}
		if r.AbsentMembers != "" {
			l.cache.SetGuildData(r.GuildID, "absent_members_role", r.AbsentMembers)
		}
		if r.RulesOK != "" {
			l.cache.SetGuildData(r.GuildID, "rules_ok_role", r.RulesOK)
		}
	}
	l.log.Info().Int("guilds", len(rows)).Msg("loaded guild roles")
	return nil
}

type guildChannelsRow struct {
	GuildID                     int64  `db:"guild_id"`
	RulesChannel                int64  `db:"rules_channel"`
	RulesMessage                int64  `db:"rules_message"`
	AnnouncementsChannel        int64  `db:"announcements_channel"`
	VoiceTavernChannel          int64  `db:"voice_tavern_channel"`
	VoiceWarChannel             int64  `db:"voice_war_channel"`
	CreateRoomChannel           int64  `db:"create_room_channel"`
	EventsChannel               int64  `db:"events_channel"`
	MembersChannel              int64  `db:"members_channel"`
	MembersM1                   int64  `db:"members_m1"`
	MembersM2                   int64  `db:"members_m2"`
	MembersM3                   int64  `db:"members_m3"`
	MembersM4                   int64  `db:"members_m4"`
	MembersM5                   int64  `db:"members_m5"`
	GroupsChannel               int64  `db:"groups_channel"`
	StaticsChannel              int64  `db:"statics_channel"`
	StaticsMessage              int64  `db:"statics_message"`
	AbsChannel                  int64  `db:"abs_channel"`
	LootChannel                 int64  `db:"loot_channel"`
	TutoChannel                 int64  `db:"tuto_channel"`
	ForumAlliesChannel          int64  `db:"forum_allies_channel"`
	ForumFriendsChannel         int64  `db:"forum_friends_channel"`
	ForumDiplomatsChannel       int64  `db:"forum_diplomats_channel"`
	ForumRecruitmentChannel     int64  `db:"forum_recruitment_channel"`
	ForumMembersChannel         int64  `db:"forum_members_channel"`
	NotificationsChannel        int64  `db:"notifications_channel"`
	ExternalRecruitmentCat      int64  `db:"external_recruitment_cat"`
	CategoryDiplomat            int64  `db:"category_diplomat"`
	ExternalRecruitmentChannel  int64  `db:"external_recruitment_channel"`
	ExternalRecruitmentMessage  int64  `db:"external_recruitment_message"`
}

func (l *Loader) loadGuildChannels(ctx context.Context) error {
	const query = `
		SELECT guild_id, rules_channel, rules_message, announcements_channel, voice_tavern_channel,
		       voice_war_channel, create_room_channel, events_channel, members_channel,
		       members_m1, members_m2, members_m3, members_m4, members_m5, groups_channel,
		       statics_channel, statics_message, abs_channel, loot_channel, tuto_channel,
		       forum_allies_channel, forum_friends_channel, forum_diplomats_channel,
		       forum_recruitment_channel, forum_members_channel, notifications_channel,
		       external_recruitment_cat, category_diplomat, external_recruitment_channel,
		       external_recruitment_message
		FROM guild_channels`
	var rows []guildChannelsRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}
	for _, r := range rows {
		l.cache.SetGuildData(r.GuildID, "channels", r)
		if r.MembersChannel != 0 {
			l.cache.SetGuildData(r.GuildID, "members_channel", r.MembersChannel)
			l.cache.SetGuildData(r.GuildID, "members_m1", r.MembersM1)
			l.cache.SetGuildData(r.GuildID, "members_m2", r.MembersM2)
			l.cache.SetGuildData(r.GuildID, "members_m3", r.MembersM3)
			l.cache.SetGuildData(r.GuildID, "members_m4", r.MembersM4)
			l.cache.SetGuildData(r.GuildID, "members_m5", r.MembersM5)
		}
		if r.ExternalRecruitmentChannel != 0 {
			l.cache.SetGuildData(r.GuildID, "external_recruitment_channel", r.ExternalRecruitmentChannel)
			l.cache.SetGuildData(r.GuildID, "external_recruitment_message", r.ExternalRecruitmentMessage)
		}
		if r.RulesChannel != 0 && r.RulesMessage != 0 {
			l.cache.SetGuildData(r.GuildID, "rules_message", [2]int64{r.RulesChannel, r.RulesMessage})
		}
		if r.AbsChannel != 0 {
			l.cache.SetGuildData(r.GuildID, "absence_channels", [2]int64{r.AbsChannel, r.ForumMembersChannel})
		}
		if r.EventsChannel != 0 {
			l.cache.SetGuildData(r.GuildID, "events_channel", r.EventsChannel)
		}
		if r.CreateRoomChannel != 0 {
			l.cache.SetGuildData(r.GuildID, "create_room_channel", r.CreateRoomChannel)
		}
	}
	l.log.Info().Int("guilds", len(rows)).Msg("loaded guild channels")
	return nil
}

type welcomeMessageRow struct {
	GuildID   int64 `db:"guild_id"`
	MemberID  int64 `db:"member_id"`
	ChannelID int64 `db:"channel_id"`
	MessageID int64 `db:"message_id"`
}

func (l *Loader) loadWelcomeMessages(ctx context.Context) error {
	const query = `SELECT guild_id, member_id, channel_id, message_id FROM welcome_messages`
	var rows []welcomeMessageRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}
	for _, r := range rows {
		l.cache.SetUserData(r.GuildID, r.MemberID, "welcome_message", [2]int64{r.ChannelID, r.MessageID})
	}
	l.log.Info().Int("count", len(rows)).Msg("loaded welcome messages")
	return nil
}

type staticGroupRow struct {
	GuildID       int64  `db:"guild_id"`
	GroupName     string `db:"group_name"`
	LeaderID      int64  `db:"leader_id"`
	MemberIDsCSV  string `db:"member_ids"`
}

// StaticGroup is the cached shape of one fixed group (spec §4.G "static
// groups are fixed ahead of formation").
type StaticGroup struct {
	LeaderID  int64   `json:"leader_id"`
	MemberIDs []int64 `json:"member_ids"`
}

func (l *Loader) loadStaticGroups(ctx context.Context) error {
	const query = `
		SELECT g.guild_id, g.group_name, g.leader_id,
		       GROUP_CONCAT(m.member_id ORDER BY m.position_order) as member_ids
		FROM guild_static_groups g
		LEFT JOIN guild_static_members m ON g.id = m.group_id
		WHERE g.is_active = TRUE
		GROUP BY g.guild_id, g.group_name, g.leader_id`
	var rows []staticGroupRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}

	byGuild := make(map[int64]map[string]StaticGroup)
	for _, r := range rows {
		groups, ok := byGuild[r.GuildID]
		if !ok {
			groups = make(map[string]StaticGroup)
			byGuild[r.GuildID] = groups
		}
		groups[r.GroupName] = StaticGroup{
			LeaderID:  r.LeaderID,
			MemberIDs: splitMemberIDs(r.MemberIDsCSV),
		}
	}
	for guildID, groups := range byGuild {
		l.cache.SetGuildData(guildID, "static_groups", groups)
	}
	l.log.Info().Int("guilds", len(byGuild)).Msg("loaded static groups")
	return nil
}

type idealStaffRow struct {
	GuildID    int64  `db:"guild_id"`
	ClassName  string `db:"class_name"`
	IdealCount int    `db:"ideal_count"`
}

func (l *Loader) loadIdealStaff(ctx context.Context) error {
	const query = `SELECT guild_id, class_name, ideal_count FROM guild_ideal_staff`
	var rows []idealStaffRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}

	byGuild := make(map[int64]map[string]int)
	for _, r := range rows {
		classes, ok := byGuild[r.GuildID]
		if !ok {
			classes = make(map[string]int)
			byGuild[r.GuildID] = classes
		}
		classes[r.ClassName] = r.IdealCount
	}
	for guildID, classes := range byGuild {
		l.cache.SetGuildData(guildID, "ideal_staff", classes)
	}
	l.log.Info().Int("guilds", len(byGuild)).Msg("loaded ideal staff")
	return nil
}

type weaponRow struct {
	GameID int64  `db:"game_id"`
	Code   string `db:"code"`
	Name   string `db:"name"`
}

type weaponCombinationRow struct {
	GameID  int64  `db:"game_id"`
	Role    string `db:"role"`
	Weapon1 string `db:"weapon1"`
	Weapon2 string `db:"weapon2"`
}

// WeaponCombination is one valid weapon pair for a role, normalized to
// uppercase per the original loader (weapon1.upper()/weapon2.upper()).
type WeaponCombination struct {
	Role    string `json:"role"`
	Weapon1 string `json:"weapon1"`
	Weapon2 string `json:"weapon2"`
}

func (l *Loader) loadWeapons(ctx context.Context) error {
	const weaponsQuery = `SELECT game_id, code, name FROM weapons ORDER BY game_id`
	var weapons []weaponRow
	if err := l.store.FetchAll(ctx, &weapons, weaponsQuery); err != nil {
		return err
	}
	byGame := make(map[int64]map[string]string)
	for _, w := range weapons {
		codes, ok := byGame[w.GameID]
		if !ok {
			codes = make(map[string]string)
			byGame[w.GameID] = codes
		}
		codes[w.Code] = w.Name
	}
	for gameID, codes := range byGame {
		l.cache.SetStaticData("weapons", gameID, codes)
	}

	const combosQuery = `SELECT game_id, role, weapon1, weapon2 FROM weapons_combinations ORDER BY game_id`
	var combos []weaponCombinationRow
	if err := l.store.FetchAll(ctx, &combos, combosQuery); err != nil {
		return err
	}
	byGameCombos := make(map[int64][]WeaponCombination)
	for _, c := range combos {
		byGameCombos[c.GameID] = append(byGameCombos[c.GameID], WeaponCombination{
			Role:    c.Role,
			Weapon1: strings.ToUpper(c.Weapon1),
			Weapon2: strings.ToUpper(c.Weapon2),
		})
	}
	for gameID, list := range byGameCombos {
		l.cache.SetStaticData("weapons_combinations", gameID, list)
	}

	l.log.Info().Int("weapons", len(weapons)).Int("combinations", len(combos)).Msg("loaded weapons data")
	return nil
}

type gameRow struct {
	ID         int64  `db:"id"`
	GameName   string `db:"game_name"`
	MaxMembers int    `db:"max_members"`
}

// GameInfo is the cached shape of one supported game.
type GameInfo struct {
	GameName   string `json:"game_name"`
	MaxMembers int    `json:"max_members"`
}

func (l *Loader) loadGamesList(ctx context.Context) error {
	const query = `SELECT id, game_name, max_members FROM games_list`
	var rows []gameRow
	if err := l.store.FetchAll(ctx, &rows, query); err != nil {
		return err
	}
	games := make(map[int64]GameInfo, len(rows))
	for _, r := range rows {
		games[r.ID] = GameInfo{GameName: r.GameName, MaxMembers: r.MaxMembers}
	}
	l.cache.SetStaticData("games_list", 0, games)
	l.log.Info().Int("games", len(rows)).Msg("loaded games list")
	return nil
}
