package types

type RunMode string

const (
	ModeLocal      RunMode = "local"
	ModeProduction RunMode = "production"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
