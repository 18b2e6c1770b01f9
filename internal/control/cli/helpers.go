package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lhartmann/worklog/internal/config"
	"github.com/lhartmann/worklog/internal/control"
	"github.com/lhartmann/worklog/internal/storage"
	"github.com/lhartmann/worklog/internal/storage/providers"
)

// loadConfig reads and parses the config file under the base dir; a missing
// file yields the defaults.
func loadConfig(envData control.EnvData) (config.Config, error) {
	yamlData, err := os.ReadFile(envData.ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return config.Config{}, fmt.Errorf("can't read config file (%w)", err)
		}
		log.Warn().Str("path", envData.ConfigPath()).Msg("no config file, using defaults")
		yamlData = make([]byte, 0)
	}

	configData, err := config.ParseConfigAugmentDefaults(yamlData)
	if err != nil {
		return config.Config{}, fmt.Errorf("can't parse config data (%w)", err)
	}
	return configData, nil
}

// openProvider opens the file-backed store under the base dir.
func openProvider(envData control.EnvData) (storage.Provider, error) {
	provider, err := providers.NewFilesDataProvider(envData.DataPath())
	if err != nil {
		return nil, fmt.Errorf("can't create file data provider (%w)", err)
	}
	return provider, nil
}
