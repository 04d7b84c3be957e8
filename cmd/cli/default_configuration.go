package cli

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigurationDecodeErrorTemplateConstant = "unable to decode embedded configuration: %w"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the embedded default configuration and its type identifier.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	duplicatedContent := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(duplicatedContent, embeddedDefaultConfigurationContent)
	return duplicatedContent, configurationTypeConstant
}

// DefaultConfiguration decodes the embedded defaults without consulting files or the environment.
func DefaultConfiguration() (ApplicationConfiguration, error) {
	configuration := ApplicationConfiguration{}
	if decodeError := yaml.Unmarshal(embeddedDefaultConfigurationContent, &configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf(defaultConfigurationDecodeErrorTemplateConstant, decodeError)
	}
	return configuration, nil
}
