package db

import "fmt"

// createTables creates the required tables if they do not exist.
func createTables() error {
	createAnnouncesTableSQL := `
	CREATE TABLE IF NOT EXISTS announces (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		channel_name TEXT NOT NULL,
		expiry_date INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := DB.Exec(createAnnouncesTableSQL); err != nil {
		return fmt.Errorf("creating announces table: %w", err)
	}

	// One composition channel per owner per guild.
	createAnnouncesIndexSQL := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_announces_guild_name
	ON announces (guild_id, channel_name);`

	if _, err := DB.Exec(createAnnouncesIndexSQL); err != nil {
		return fmt.Errorf("creating announces index: %w", err)
	}

	createAnnounceDataTableSQL := `
	CREATE TABLE IF NOT EXISTS announce_data (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		cmd_channel_id TEXT NOT NULL,
		cmd_message_id TEXT NOT NULL,
		announce_channel_id TEXT,
		content TEXT,
		attachments TEXT,
		locked_until INTEGER,
		sent_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := DB.Exec(createAnnounceDataTableSQL); err != nil {
		return fmt.Errorf("creating announce_data table: %w", err)
	}

	createCommandRolesTableSQL := `
	CREATE TABLE IF NOT EXISTS command_roles (
		guild_id TEXT NOT NULL,
		command TEXT NOT NULL,
		role_id TEXT NOT NULL,
		PRIMARY KEY (guild_id, command, role_id)
	);`

	if _, err := DB.Exec(createCommandRolesTableSQL); err != nil {
		return fmt.Errorf("creating command_roles table: %w", err)
	}

	return nil
}
