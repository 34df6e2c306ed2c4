package config

import (
	"github.com/spf13/viper"
)

type Access struct {
	// Site administrators, always treated as approved authors
	AdminIds []int64

	// Roles whose holders are approved authors (teachers, managers)
	RoleIds []int64

	// Roles allowed to call the query surface
	ViewerRoleIds []int64
}

func setAccessDefaults(v *viper.Viper) {
	v.SetDefault("Access.AdminIds", "2")
	v.SetDefault("Access.RoleIds", "1,3,4")
	v.SetDefault("Access.ViewerRoleIds", "1,3,4")
}
