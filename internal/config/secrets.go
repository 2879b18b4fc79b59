package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Secrets mirrors the legacy Streamlit secrets.toml. Both layouts are accepted:
//
//	[supabase]
//	DB_URL = "..."
//	DB_TOKEN = "..."
//
// or the same keys at the top level.
type Secrets struct {
	DatabaseURL string
	Token       string
}

type secretsFile struct {
	DBURL    string `toml:"DB_URL"`
	DBToken  string `toml:"DB_TOKEN"`
	Supabase *struct {
		DBURL   string `toml:"DB_URL"`
		DBToken string `toml:"DB_TOKEN"`
		URL     string `toml:"url"`
		Key     string `toml:"key"`
	} `toml:"supabase"`
}

func LoadSecrets(path string) (Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Secrets{}, fmt.Errorf("read secrets file: %w", err)
	}
	return parseSecrets(data)
}

func parseSecrets(data []byte) (Secrets, error) {
	var raw secretsFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Secrets{}, fmt.Errorf("decode secrets file: %w", err)
	}

	if raw.Supabase != nil {
		s := Secrets{DatabaseURL: raw.Supabase.DBURL, Token: raw.Supabase.DBToken}
		if s.DatabaseURL == "" {
			s.DatabaseURL = raw.Supabase.URL
		}
		if s.Token == "" {
			s.Token = raw.Supabase.Key
		}
		if s.DatabaseURL != "" {
			return s, nil
		}
	}

	if raw.DBURL == "" {
		return Secrets{}, fmt.Errorf("secrets file has no DB_URL")
	}
	return Secrets{DatabaseURL: raw.DBURL, Token: raw.DBToken}, nil
}
