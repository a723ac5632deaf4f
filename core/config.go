package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *viper.Viper

func init() {
	Conf = viper.New()

	// defaults
	Conf.SetTypeByDefaultValue(true)
	Conf.SetDefault("debug", true)
	Conf.SetDefault("appName", "Athena")
	Conf.SetDefault("secretKey", "q2x^#mt7e&=vkz$)8y(wn0u_5j+4r%ahg@1c!dspf9lbo6i3")
	Conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	Conf.SetDefault("catalogPath", filepath.Join(Getwd(), "config", "catalog.yaml"))
	Conf.SetDefault("fileStoreDir", filepath.Join(Getwd(), "uploads"))
	Conf.SetDefault("fileBaseURL", "http://localhost:8000/files")
	Conf.SetDefault("fileURLTimeout", 15*time.Minute)
	Conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case strings.ToUpper("TEST"):
		Conf.SetDefault("testMode", true)
	}
	Conf.SetDefault("env", env)
	Conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	Conf.AutomaticEnv()
}
