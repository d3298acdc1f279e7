package db

// GetCommandRoles returns the role ids granted to a command within a guild.
// An empty result means no rows exist and the caller should fall back to the
// configured defaults.
func GetCommandRoles(guildID, command string) ([]string, error) {
	rows, err := DB.Query("SELECT role_id FROM command_roles WHERE guild_id = ? AND command = ?",
		guildID, command)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roleIDs []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, roleID)
	}
	return roleIDs, rows.Err()
}
