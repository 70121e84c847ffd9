package main

import (
	"github.com/spf13/pflag"

	"github.com/dukerupert/homebase/internal/config"
)

// applyFlags overrides cfg with flags the user set explicitly.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	overrides := map[string]*string{
		"db":        &cfg.Database.Path,
		"log-level": &cfg.Log.Level,
		"port":      &cfg.Server.Port,
	}
	for name, dst := range overrides {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}
