package tasks

import "github.com/snaptodo/snaptodo/db"

// settingsPersistence stores the task list JSON under a settings key
type settingsPersistence struct {
	key string
}

// NewSettingsPersistence returns persistence backed by the settings table,
// using the fixed storage key.
func NewSettingsPersistence() Persistence {
	return &settingsPersistence{key: StorageKey}
}

func (p *settingsPersistence) Load() (string, error) {
	return db.GetSetting(p.key)
}

func (p *settingsPersistence) Save(value string) error {
	return db.SetSetting(p.key, value)
}
