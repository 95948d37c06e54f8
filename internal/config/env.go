package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIRCANVAS_"

// Env returns the value of AIRCANVAS_<key>, or def when unset.
func Env(key, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
		return v
	}
	return def
}

// EnvInt returns AIRCANVAS_<key> as an int, or def when unset or invalid.
func EnvInt(key string, def int) int {
	v := Env(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDuration returns AIRCANVAS_<key> as a duration ("1s", "250ms"), or def.
func EnvDuration(key string, def time.Duration) time.Duration {
	v := Env(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// EnvBool returns AIRCANVAS_<key> as a bool, or def.
func EnvBool(key string, def bool) bool {
	switch strings.ToLower(Env(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
