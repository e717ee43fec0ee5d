package config

import "os"

func IsDebug() bool {
	return os.Getenv("MEDICHAT_DEBUG") == "1"
}
