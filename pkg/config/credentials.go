package config

import (
	"fmt"
	"os"

	"github.com/sdejongh/ftpwatch/pkg/transport"
)

// CredentialsConfig holds connection settings for a remote target.
// Secrets can be given inline or through an environment variable; the
// variable wins when it is set.
type CredentialsConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`

	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`

	// SFTP only
	PrivateKeyFile        string `yaml:"private_key_file,omitempty"`
	Passphrase            string `yaml:"passphrase,omitempty"`
	PassphraseEnv         string `yaml:"passphrase_env,omitempty"`
	KnownHosts            string `yaml:"known_hosts,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key,omitempty"`
}

// Resolve reads secrets and key material and returns transport credentials
func (c *CredentialsConfig) Resolve() (transport.Credentials, error) {
	creds := transport.Credentials{
		Host:                  c.Host,
		Port:                  c.Port,
		Username:              c.Username,
		Password:              fromEnv(c.Password, c.PasswordEnv),
		Passphrase:            fromEnv(c.Passphrase, c.PassphraseEnv),
		KnownHostsFile:        expandHome(c.KnownHosts),
		InsecureIgnoreHostKey: c.InsecureIgnoreHostKey,
	}

	if c.Port < 0 || c.Port > 65535 {
		return transport.Credentials{}, fmt.Errorf("invalid port %d", c.Port)
	}

	if c.PrivateKeyFile != "" {
		key, err := os.ReadFile(expandHome(c.PrivateKeyFile))
		if err != nil {
			return transport.Credentials{}, fmt.Errorf("failed to read private key: %w", err)
		}
		creds.PrivateKey = key
	}

	return creds, nil
}

func fromEnv(value, env string) string {
	if env != "" {
		if v, ok := os.LookupEnv(env); ok {
			return v
		}
	}
	return value
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
