package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/slovnyk/internal"
)

// Runner executes the subcommands. It is created after the
// configuration has been read and closed when the command returns.
type Runner interface {
	Categories(ctx context.Context, w io.Writer) error
	Show(ctx context.Context, w io.Writer, category string) error
	Say(ctx context.Context, w io.Writer, lang, text string) error
	Drill(ctx context.Context, in io.Reader, w io.Writer, category string) error
	Export(ctx context.Context, w io.Writer, category string) error
	Import(ctx context.Context, w io.Writer, files []string) error
	Enrich(ctx context.Context, w io.Writer, category string) error
	Archive(ctx context.Context, w io.Writer) error
	Close() error
}

// RunnerFactory creates the Runner for one command invocation
type RunnerFactory func(flags *Flags) (Runner, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, newRunner RunnerFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slovnyk",
		Short: "Czech-Ukrainian vocabulary flashcards",
		Long: `slovnyk drills Czech and Ukrainian vocabulary from the command line.

Cards are grouped into categories, can be pronounced through Google
Translate speech and exported as plain text for other flashcard tools.

Examples:
  slovnyk import data/*.json            # Load categories into the database
  slovnyk show zvirata --lang ua        # List cards, Ukrainian side first
  slovnyk drill zvirata                 # Play cards interactively
  slovnyk export zvirata --field tab    # Write zvirata.txt`,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	setupFlags(rootCmd, flags)

	run := func(fn func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			flags.LoadFromViper()

			r, err := newRunner(flags)
			if err != nil {
				return err
			}
			defer r.Close()

			return fn(cmd.Context(), r, cmd, args)
		}
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "categories",
			Short: "List categories with their card counts",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, _ []string) error {
				return r.Categories(ctx, cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "show <category>",
			Short: "Show the cards of a category in display order",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
				return r.Show(ctx, cmd.OutOrStdout(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "say <lang> <text>",
			Short: "Pronounce a text (lang: cz or ua)",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
				return r.Say(ctx, cmd.OutOrStdout(), args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "drill <category>",
			Short: "Interactively play the cards of a category",
			Long: `Reads commands from standard input:
  <n>    play card n, display side first
  <n>b   play the other side of card n
  s      stop playback
  q      quit`,
			Args: cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
				return r.Drill(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
			}),
		},
		createExportCommand(flags, run),
		&cobra.Command{
			Use:   "import [files...]",
			Short: "Import dataset files (default: the data directory) into the database",
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
				return r.Import(ctx, cmd.OutOrStdout(), args)
			}),
		},
		&cobra.Command{
			Use:   "enrich <category>",
			Short: "Generate missing transcriptions and store them",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
				return r.Enrich(ctx, cmd.OutOrStdout(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "archive",
			Short: "Move the exports directory into a timestamped archive",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, _ []string) error {
				return r.Archive(ctx, cmd.OutOrStdout())
			}),
		},
	)

	return rootCmd
}

func createExportCommand(flags *Flags, run func(func(context.Context, Runner, *cobra.Command, []string) error) func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <category>",
		Short: "Export a category as <category>.txt",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, r Runner, cmd *cobra.Command, args []string) error {
			return r.Export(ctx, cmd.OutOrStdout(), args[0])
		}),
	}

	cmd.Flags().StringVar(&flags.Field, "field", flags.Field, "Field separator: comma, semicolon, tab or custom")
	cmd.Flags().StringVar(&flags.FieldCustom, "field-custom", "", "Custom field separator, used with --field custom")
	cmd.Flags().StringVar(&flags.Record, "record", flags.Record, "Record separator: newline, semicolon or custom")
	cmd.Flags().StringVar(&flags.RecordCustom, "record-custom", "", "Custom record separator, used with --record custom")

	viper.BindPFlag("export.field", cmd.Flags().Lookup("field"))
	viper.BindPFlag("export.field_custom", cmd.Flags().Lookup("field-custom"))
	viper.BindPFlag("export.record", cmd.Flags().Lookup("record"))
	viper.BindPFlag("export.record_custom", cmd.Flags().Lookup("record-custom"))

	return cmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.slovnyk.yaml)")
	pf.StringVarP(&flags.DataDir, "data", "d", "", "Dataset directory; read directly instead of the database when set")
	pf.StringVar(&flags.Database, "db", flags.Database, "SQLite database file")
	pf.StringVarP(&flags.ExportDir, "output", "o", flags.ExportDir, "Exports directory")
	pf.StringVarP(&flags.Lang, "lang", "l", flags.Lang, "Display language: cz or ua")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose logging")

	// Playback flags
	pf.StringVar(&flags.PlayerBackend, "player", "", "Audio backend: exec or beep (default from SLOVNYK_PLAYER_BACKEND or exec)")
	pf.StringVar(&flags.PlayerCommand, "player-command", "", "External player command for the exec backend, e.g. 'mpv --no-video'")

	// Transcription flags
	pf.StringVar(&flags.Provider, "provider", flags.Provider, "Transcription provider: openai or gemini")
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI chat model used for transcriptions")
	pf.StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini model used for transcriptions")
	pf.IntVar(&flags.Parallel, "parallel", flags.Parallel, "Concurrent transcription requests")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()

	viper.BindPFlag("data.directory", pf.Lookup("data"))
	viper.BindPFlag("data.database", pf.Lookup("db"))
	viper.BindPFlag("export.directory", pf.Lookup("output"))
	viper.BindPFlag("display.lang", pf.Lookup("lang"))
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("player.backend", pf.Lookup("player"))
	viper.BindPFlag("player.command", pf.Lookup("player-command"))
	viper.BindPFlag("transcription.provider", pf.Lookup("provider"))
	viper.BindPFlag("transcription.openai_model", pf.Lookup("openai-model"))
	viper.BindPFlag("transcription.gemini_model", pf.Lookup("gemini-model"))
	viper.BindPFlag("transcription.parallel", pf.Lookup("parallel"))
}

// InitConfig loads .env, then the viper config file and environment
func InitConfig(cfgFile string) {
	// a missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".slovnyk" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".slovnyk")
	}

	// Environment variables
	viper.SetEnvPrefix("SLOVNYK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("transcription.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return viper.GetString("transcription.gemini_key")
}
