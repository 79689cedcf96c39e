package app

const (
	Name               = "msgsync"
	ConfigFilename     = "config.json"
	DBFilename         = "messages.db"
	UpstreamDBFilename = "upstream.db"
	LogFilename        = "msgsync.log"
)
