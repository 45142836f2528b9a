package config

type AppConfig struct {
	RefreshDelayMinutes int64 `yaml:"refresh-delay-minutes"`
}

// RefreshMinutes is the period of the background list refresh.
// Zero disables periodic refreshing; the session-start fetch always runs.
func (s *AppConfig) RefreshMinutes() int64 {
	return s.RefreshDelayMinutes
}
