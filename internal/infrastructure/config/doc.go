// Package config loads service configuration from the environment.
//
// Every setting has a default, so the service starts with no environment at
// all. Values are read with envconfig; see the struct tags for variable names.
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
