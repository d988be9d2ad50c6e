package configuration

type Configuration struct {
	HttpAddr          string  `usage:"HTTP address"`
	Dir               string  `usage:"data directory"`
	SnapshotFile      string  `usage:"snapshot file name inside Dir, a .zst suffix enables compression"`
	Remotes           string  `usage:"comma separated base URLs of the nodes receiving the change log"`
	SqliteArchive     string  `usage:"SQLite file archiving the change log, empty to disable"`
	Journal           string  `usage:"JSON lines file the change log is appended to, empty to disable"`
	SuccessLimit      float64 `usage:"remotes that must acknowledge a change, a fraction in (0,1) or an absolute count"`
	AutosaveInterval  string  `usage:"interval between snapshot saves, e.g. 10s"`
	ApiKey            string  `usage:"API key, empty disables authentication"`
	ApiSecret         string  `usage:"API secret"`
	RemoteApiKey      string  `usage:"API key sent to remotes"`
	RemoteApiSecret   string  `usage:"API secret sent to remotes"`
	EnableCompression bool    `usage:"gzip responses when accepted"`
	StrictWrites      bool    `usage:"queue direct writes behind transactions"`
	LogLevel          string  `usage:"log level: debug, info, warn, error"`
	Version           bool    `usage:"show version and exit"`
	ShowBanner        bool    `usage:"show big banner"`
	ShowConfig        bool    `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:          ":8080",
		Dir:               "data",
		SnapshotFile:      "db.json",
		SuccessLimit:      0.5,
		AutosaveInterval:  "10s",
		EnableCompression: true,
		LogLevel:          "info",
		ShowBanner:        true,
	}
}
