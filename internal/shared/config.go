package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Rules struct {
		Path         string   `yaml:"path"`          // "data/rules.yml"
		TemplatePath string   `yaml:"template_path"` // "data/templates/dictamen.md"
		DB           string   `yaml:"db"`            // "" (file source) or "./registro.db"
		RuleSet      string   `yaml:"rule_set"`      // "default"
		Disabled     []string `yaml:"disabled"`      // rule names to drop after load
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	API struct {
		Addr           string   `yaml:"addr"`            // ":8080"
		AdminUser      string   `yaml:"admin_user"`      // empty disables /admin
		AdminPassHash  string   `yaml:"admin_pass_hash"` // bcrypt
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"api"`
}

func DefaultConfig() Config {
	var c Config
	c.Rules.Path = "data/rules.yml"
	c.Rules.TemplatePath = "data/templates/dictamen.md"
	c.Rules.RuleSet = "default"
	c.Reporting.OutDir = "./reports"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	c.API.Addr = ":8080"
	return c
}

// LoadConfig reads path over the defaults and applies REGISTRO_* overrides.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("REGISTRO_RULES_PATH"); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv("REGISTRO_TEMPLATE_PATH"); v != "" {
		c.Rules.TemplatePath = v
	}
	if v := os.Getenv("REGISTRO_RULES_DB"); v != "" {
		c.Rules.DB = v
	}
	if v := os.Getenv("REGISTRO_RULE_SET"); v != "" {
		c.Rules.RuleSet = v
	}
	if v := os.Getenv("REGISTRO_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("REGISTRO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REGISTRO_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("REGISTRO_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("REGISTRO_ADMIN_USER"); v != "" {
		c.API.AdminUser = v
	}
	if v := os.Getenv("REGISTRO_ADMIN_PASS_HASH"); v != "" {
		c.API.AdminPassHash = v
	}
	return c, c.Validate()
}

// Validate rejects settings no command could run with.
func (c Config) Validate() error {
	if c.Rules.DB == "" && c.Rules.Path == "" {
		return fmt.Errorf("config: rules.path or rules.db is required")
	}
	if c.Rules.TemplatePath == "" {
		return fmt.Errorf("config: rules.template_path is required")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: logging.format must be json or text, got %q", c.Logging.Format)
	}
	if (c.API.AdminUser == "") != (c.API.AdminPassHash == "") {
		return fmt.Errorf("config: api.admin_user and api.admin_pass_hash must be set together")
	}
	return nil
}

// DefaultRulesDB is where import-rules keeps the rules database when neither
// --db nor rules.db is set: $XDG_DATA_HOME/registro/rules.db.
func DefaultRulesDB() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "registro", "rules.db")
}
