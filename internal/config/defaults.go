/**
 * Configuration Defaults.
 *
 * Provides sane default values for application configuration to ensure
 * ntap can run out-of-the-box without extensive setup.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package config

import "time"

// Defaults returns the configuration used when no file exists yet.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level: LevelError,
		},
		Network: NetworkConfig{
			Interfaces: nil, // empty means "capture every usable interface"
			ReverseDNS: false,
			EntryTTLMs: uint64((60 * time.Second).Milliseconds()),
		},
		Display: DisplayConfig{
			TopRemoteHosts:  10,
			ConnectionCount: 10,
			TickRateMs:      uint64((1000 * time.Millisecond).Milliseconds()),
			ShowBandwidth:   false, // default is total, not bandwidth
		},
		Privacy: PrivacyConfig{
			HidePrivateIPInfo: true,
			HidePublicIPInfo:  true,
		},
	}
}
