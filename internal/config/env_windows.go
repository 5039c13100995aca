//go:build windows

package config

// POSIX names used in config files and their Windows equivalents.
var windowsEnvAliases = map[string]string{
	"HOSTNAME": "COMPUTERNAME",
	"HOME":     "USERPROFILE",
	"TMPDIR":   "TEMP",
}

func mapEnvKey(key string) string {
	if alias, ok := windowsEnvAliases[key]; ok {
		return alias
	}
	return key
}
