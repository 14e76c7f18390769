package reliability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/romaingrosos/myguildmanager-core/store"
)

var backupJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// BackupRecord is one store row captured for a guild backup, keyed by the
// table it came from. Params preserves column order for replay.
type BackupRecord struct {
	Table  string        `json:"table"`
	SQL    string        `json:"sql"`
	Params []interface{} `json:"params"`
}

// BackupDocument is the JSON document persisted for one guild (spec §6
// "Backups are JSON documents keyed by guild id").
type BackupDocument struct {
	GuildID string         `json:"guild_id"`
	Records []BackupRecord `json:"records"`
}

// BackupManager serializes and restores a guild's store-side rows. Contract
// only (spec §4.D): callers supply the fetch queries that produce the rows
// to capture and the insert statement used to replay each one.
type BackupManager struct {
	dir string
	gw  *store.Gateway
}

// NewBackupManager roots backup documents under dir, one file per guild.
func NewBackupManager(dir string, gw *store.Gateway) *BackupManager {
	return &BackupManager{dir: dir, gw: gw}
}

func (b *BackupManager) path(guildID string) string {
	return filepath.Join(b.dir, fmt.Sprintf("guild-%s.json", guildID))
}

// Backup writes doc (already populated by the caller from store fetches) to
// this guild's backup file, overwriting any prior backup.
func (b *BackupManager) Backup(guildID string, doc BackupDocument) error {
	doc.GuildID = guildID
	data, err := backupJSON.Marshal(doc)
	if err != nil {
		return fmt.Errorf("reliability: marshal backup for guild %s: %w", guildID, err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("reliability: create backup dir: %w", err)
	}
	if err := os.WriteFile(b.path(guildID), data, 0o644); err != nil {
		return fmt.Errorf("reliability: write backup for guild %s: %w", guildID, err)
	}
	return nil
}

// Load reads a previously written backup document for guildID.
func (b *BackupManager) Load(guildID string) (BackupDocument, error) {
	var doc BackupDocument
	data, err := os.ReadFile(b.path(guildID))
	if err != nil {
		return doc, fmt.Errorf("reliability: read backup for guild %s: %w", guildID, err)
	}
	if err := backupJSON.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("reliability: unmarshal backup for guild %s: %w", guildID, err)
	}
	return doc, nil
}

// Restore replays a guild's backup document in order as a single
// transactional batch via the store gateway (spec §4.D "restore replays
// them in order as a transactional batch via 4.C").
func (b *BackupManager) Restore(ctx context.Context, guildID string) error {
	doc, err := b.Load(guildID)
	if err != nil {
		return err
	}
	stmts := make([]store.Statement, 0, len(doc.Records))
	for _, rec := range doc.Records {
		stmts = append(stmts, store.Statement{SQL: rec.SQL, Params: rec.Params})
	}
	if len(stmts) == 0 {
		return nil
	}
	return b.gw.TransactionalBatch(ctx, stmts)
}
