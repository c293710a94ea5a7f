// Package config loads the webapi client configuration.
//
// Values are read with viper from a YAML file, then overridden by
// environment variables and a .env file loaded with godotenv. A variable
// is bound when its first segment names a section:
//
//	WEBAPI_BASE_ADDRESS=https://webapi.local/   -> webapi.base_address
//	WEBAPI_CERTIFICATE_SERIAL=4a2f               -> webapi.certificate_serial
//	LOGGING_LEVEL=debug                          -> logging.level
//
// # Usage
//
//	cfg, err := config.Load("webapictl", config.WithConfigFile("config.yml"))
//	client, err := httpclient.New(cfg.WebAPI.ClientConfig())
package config
