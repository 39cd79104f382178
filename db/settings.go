package db

import "database/sql"

// GetSetting retrieves a setting by key. Missing keys return "".
func GetSetting(key string) (string, error) {
	var value string
	err := GetDB().QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting updates or creates a setting
func SetSetting(key, value string) error {
	_, err := GetDB().Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, NowMs())
	return err
}

// DeleteSetting removes a setting
func DeleteSetting(key string) error {
	_, err := GetDB().Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// UpdateSettings updates multiple settings at once
func UpdateSettings(settings map[string]string) error {
	return Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := NowMs()
		for key, value := range settings {
			if _, err := stmt.Exec(key, value, now); err != nil {
				return err
			}
		}

		return nil
	})
}
