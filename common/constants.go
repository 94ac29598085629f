package common

const (
	SrcFileExtension = ".arx"
	ConfigFileName   = "arx.toml"
	HistoryFileName  = ".arx_history"
	ArxVersion       = "0.1.0"
)
