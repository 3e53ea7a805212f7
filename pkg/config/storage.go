package config

// StorageConfig selects where the default template set lives.
type StorageConfig struct {
	TemplateStorage string `yaml:"template_storage"`
	TemplateBucket  string `yaml:"template_bucket"`
	TemplatePrefix  string `yaml:"template_prefix"`
}

func loadStorageConfig(base StorageConfig) StorageConfig {
	return StorageConfig{
		TemplateStorage: getEnv("TEMPLATE_STORAGE", orString(base.TemplateStorage, "local")),
		TemplateBucket:  getEnv("TEMPLATE_BUCKET", base.TemplateBucket),
		TemplatePrefix:  getEnv("TEMPLATE_PREFIX", orString(base.TemplatePrefix, "templates")),
	}
}
