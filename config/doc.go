// Package config loads tomoflow configuration with Viper.
//
// A YAML file found in the standard locations (or passed explicitly) is
// read first; a .env file is loaded with godotenv; TOMOFLOW_-prefixed
// environment variables override both (TOMOFLOW_STORAGE_PROVIDER sets
// storage.provider).
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("tomoflow", &cfg, config.WithConfigFile(path))
package config
