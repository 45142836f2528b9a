package config

type StateConfig struct {
	FilePath     string `yaml:"file"`
	DownloadsDir string `yaml:"downloads-dir"`
}

func (s *StateConfig) File() string {
	if s.FilePath == "" {
		return "data/state.json"
	}
	return s.FilePath
}

func (s *StateConfig) Downloads() string {
	if s.DownloadsDir == "" {
		return "data/downloads"
	}
	return s.DownloadsDir
}
