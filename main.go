package main

import (
	"github.com/spf13/viper"

	"github.com/sanirun/sanirun/internal/cmd/root"
)

func init() {
	viper.SetEnvPrefix("SANIRUN")
	viper.AutomaticEnv()
}

func main() {
	root.Execute()
}
