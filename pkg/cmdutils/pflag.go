package cmdutils

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func ViperMustBindPFlag(key string, flag *pflag.Flag) {
	err := viper.BindPFlag(key, flag)
	if err != nil {
		panic(err)
	}
}
