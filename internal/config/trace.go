package config

type TraceConfig struct {
	ServiceNameValue string `yaml:"service-name"`
}

func (t *TraceConfig) ServiceName() string {
	if t.ServiceNameValue == "" {
		return "expensetrack-bot"
	}
	return t.ServiceNameValue
}
