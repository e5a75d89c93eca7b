package logging

import (
	"fmt"
	"os"

	"careerarc/internal/logging/adapters"
	"careerarc/internal/logging/types"
)

// AdapterFactory creates logging adapters from configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter builds the adapter named by adapterConfig.Type
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	opts := adapterConfig.Options

	switch adapterConfig.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format:    getStringOption(opts, "format", "json"),
			Colorized: getBoolOption(opts, "colorized", false),
		}), nil
	case "stderr":
		return adapters.NewWriterAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format:    getStringOption(opts, "format", "json"),
			Colorized: getBoolOption(opts, "colorized", false),
		}, os.Stderr), nil
	case "file":
		return adapters.NewFileAdapter(adapterConfig.Name, adapters.FileConfig{
			FilePath:    getStringOption(opts, "file_path", ""),
			Format:      getStringOption(opts, "format", "json"),
			MaxSize:     getInt64Option(opts, "max_size", 0),
			MaxBackups:  getIntOption(opts, "max_backups", 10),
			Compress:    getBoolOption(opts, "compress", false),
			CreateDirs:  getBoolOption(opts, "create_dirs", true),
			SyncOnWrite: getBoolOption(opts, "sync_on_write", false),
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

func getStringOption(options map[string]interface{}, key, defaultValue string) string {
	if str, ok := options[key].(string); ok {
		return str
	}
	return defaultValue
}

func getIntOption(options map[string]interface{}, key string, defaultValue int) int {
	return int(getInt64Option(options, key, int64(defaultValue)))
}

func getInt64Option(options map[string]interface{}, key string, defaultValue int64) int64 {
	switch v := options[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return defaultValue
	}
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if b, ok := options[key].(bool); ok {
		return b
	}
	return defaultValue
}
