package astrodyn

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _config{}
)

// _config is a "hidden" struct, just use `getConfig`.
type _config struct {
	VSOP87Dir string
	outputDir string
}

// getConfig returns the astrodyn configuration, loading it on first use.
// The configuration lives in a conf.toml in the directory pointed to by the
// ASTRODYN_CONFIG environment variable.
func getConfig() _config {
	if cfgLoaded {
		return config
	}
	confPath := os.Getenv("ASTRODYN_CONFIG")
	if confPath == "" {
		panic("environment variable `ASTRODYN_CONFIG` is missing or empty")
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}

	config = _config{
		VSOP87Dir: viper.GetString("VSOP87.directory"),
		outputDir: viper.GetString("general.output_path"),
	}
	cfgLoaded = true
	return config
}
