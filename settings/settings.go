// Package settings is the viewer-settings collaborator: the
// background color used when alpha-compositing a PSD's merged image,
// and the URL template the (out-of-scope) map display uses for a GPS
// coordinate. It loads from file/env/flags the way the Google Takeout
// importer's internal/config does, but on top of viper rather than a
// plain defaulted struct, since nothing here is passed through cobra
// flags the way that importer's upload options are.
package settings

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultColorTransparency = 0x00000000 // opaque black, BGR packed low 24 bits
	defaultGPSMapProvider    = "https://www.openstreetmap.org/?mlat={lat}&mlon={lng}#map=15"
)

// Settings holds the handful of viewer preferences the core decoders
// consult as collaborators. Zero value is usable and returns the
// package defaults.
type Settings struct {
	v *viper.Viper
}

// New builds Settings with defaults applied, then overlays a config
// file (if configPath is non-empty) and environment variables
// prefixed IMGMETA_.
func New(configPath string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("color_transparency", defaultColorTransparency)
	v.SetDefault("gps_map_provider", defaultGPSMapProvider)

	v.SetEnvPrefix("IMGMETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return &Settings{v: v}, nil
}

// ColorTransparency returns the background color (packed B<<16|G<<8|R)
// used when flattening a PSD's merged image against its alpha
// channel.
func (s *Settings) ColorTransparency() uint32 {
	if s == nil || s.v == nil {
		return defaultColorTransparency
	}
	return uint32(s.v.GetInt64("color_transparency"))
}

// GPSMapProvider returns the URL template (with {lat}/{lng}
// placeholders) used by the display layer, never by the core
// decoders.
func (s *Settings) GPSMapProvider() string {
	if s == nil || s.v == nil {
		return defaultGPSMapProvider
	}
	return s.v.GetString("gps_map_provider")
}
