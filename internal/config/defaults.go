package config

const (
	defaultDataDir         = "~/.local/share/nomen"
	defaultLogDir          = "~/.local/share/nomen/logs"
	defaultDatabaseName    = "nomen.db"
	defaultLockDirName     = "locks"
	defaultBufferSizeKiB   = 1024
	minBufferSizeKiB       = 1024
	defaultEmbedder        = "NomenAudio"
	defaultIXMLVersion     = "1.61"
	defaultLibraryTemplate = "{source_id} {library_name}"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Writer: Writer{
			BufferSizeKiB:    defaultBufferSizeKiB,
			VerifyAfterWrite: true,
			Embedder:         defaultEmbedder,
			IXMLVersion:      defaultIXMLVersion,
		},
		Settings: Settings{
			LibraryTemplate: defaultLibraryTemplate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
