package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PANEL_DATABASE_PATH.
const EnvPrefix = "PANEL"

// BindEnv makes v read PANEL_* variables, with dots in keys mapped to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
