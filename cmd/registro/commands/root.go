package commands

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lauolme/registro-app/internal/dictamen"
	"github.com/lauolme/registro-app/internal/rules"
	"github.com/lauolme/registro-app/internal/shared"
	"github.com/lauolme/registro-app/internal/storage"
)

// App carries the global flags and the resolved configuration to every command.
type App struct {
	ConfigPath   string
	LogFormat    string
	LogLevel     string
	RulesPath    string
	TemplatePath string
	RulesDB      string
	RuleSet      string

	Config shared.Config
	Logger *slog.Logger
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}
	cmd := &cobra.Command{
		Use:   "registro",
		Short: "Generate legal opinions (dictámenes) from case facts",
		Long: `registro evaluates the facts of a property-registry case against a YAML
rule pack and renders a markdown dictamen with a SHA-256 fingerprint.

Configuration is read from --config, then REGISTRO_* environment variables
(a .env file in the working directory is loaded first), then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&app.ConfigPath, "config", "configs/registro.yaml", "Path to YAML config (missing file is ignored)")
	f.StringVar(&app.LogFormat, "log-format", "", "Log format: json|text")
	f.StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	f.StringVar(&app.RulesPath, "rules", "", "YAML rule pack")
	f.StringVar(&app.TemplatePath, "template", "", "Dictamen markdown template")
	f.StringVar(&app.RulesDB, "db", "", "SQLite rules database (overrides --rules)")
	f.StringVar(&app.RuleSet, "rule-set", "", "Rule set name inside --db")

	cmd.AddCommand(
		NewEvaluateCmd(app),
		NewServeCmd(app),
		NewRulesCmd(app),
		NewImportRulesCmd(app),
		NewDigestCmd(),
		NewVerifyCmd(),
		NewDiffCmd(app),
		NewDemoCmd(),
		NewHashPasswordCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// init resolves configuration with precedence flags > env > config > defaults.
func (a *App) init() error {
	_ = godotenv.Load()

	cfg, err := shared.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.LogFormat != "" {
		cfg.Logging.Format = a.LogFormat
	}
	if a.LogLevel != "" {
		cfg.Logging.Level = a.LogLevel
	}
	if a.RulesPath != "" {
		cfg.Rules.Path = a.RulesPath
	}
	if a.TemplatePath != "" {
		cfg.Rules.TemplatePath = a.TemplatePath
	}
	if a.RulesDB != "" {
		cfg.Rules.DB = a.RulesDB
	}
	if a.RuleSet != "" {
		cfg.Rules.RuleSet = a.RuleSet
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.Config = cfg
	a.Logger = shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)
	return nil
}

// Loader returns a LoadFunc reading the configured rule source and template.
func (a *App) Loader() dictamen.LoadFunc {
	cfg := a.Config
	settings := rules.Settings{Disabled: cfg.Rules.Disabled}
	return func() (*dictamen.Snapshot, error) {
		if cfg.Rules.DB == "" {
			return dictamen.LoadFiles(cfg.Rules.Path, cfg.Rules.TemplatePath, settings)
		}
		db, err := storage.OpenExisting(cfg.Rules.DB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return dictamen.LoadStore(db, cfg.Rules.RuleSet, cfg.Rules.TemplatePath, settings)
	}
}

// LoadSnapshot loads the rule set and template once and logs a summary.
func (a *App) LoadSnapshot() (*dictamen.Snapshot, error) {
	s, err := a.Loader()()
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	a.Logger.Debug("rule set loaded",
		"source", s.Source,
		"rules", len(s.Rules),
		"template", a.Config.Rules.TemplatePath,
		"version", s.Version,
	)
	for _, name := range rules.Duplicates(s.Rules) {
		a.Logger.Warn("duplicate rule name", "name", name)
	}
	return s, nil
}
