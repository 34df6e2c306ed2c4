package model

const (
	TableSetting = "ally_settings"
)

type SettingName string

const (
	// Watermark of the file updates scan
	SettingPushTimestamp SettingName = "push_timestamp"

	// Watermark of the content updates and deletions
	SettingPushContentTimestamp SettingName = "push_content_timestamp"

	// Live pushes are suspended when set to 1
	SettingPushCliOnly SettingName = "push_cli_only"
)

type Setting struct {
	Name  SettingName `gorm:"primaryKey"`
	Value string
}

func (Setting) TableName() string {
	return TableSetting
}
