package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile   string
	DataDir   string
	Database  string
	ExportDir string
	Lang      string
	Verbose   bool

	// Playback flags
	PlayerBackend string
	PlayerCommand string

	// Export flags
	Field        string
	FieldCustom  string
	Record       string
	RecordCustom string

	// Transcription flags
	Provider    string
	OpenAIModel string
	GeminiModel string
	Parallel    int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Database:    filepath.Join(StateDir(), "slovnyk.db"),
		ExportDir:   filepath.Join(StateDir(), "exports"),
		Lang:        "cz",
		Field:       "comma",
		Record:      "newline",
		Provider:    "openai",
		OpenAIModel: "gpt-4o-mini",
		GeminiModel: "gemini-2.0-flash",
		Parallel:    4,
	}
}

// StateDir is where the database and exports live by default
func StateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "slovnyk")
}

// LoadFromViper copies the effective configuration into the flags. Values
// given on the command line win over the config file and the environment.
func (f *Flags) LoadFromViper() {
	for key, target := range map[string]*string{
		"data.directory":             &f.DataDir,
		"data.database":              &f.Database,
		"export.directory":           &f.ExportDir,
		"export.field":               &f.Field,
		"export.field_custom":        &f.FieldCustom,
		"export.record":              &f.Record,
		"export.record_custom":       &f.RecordCustom,
		"display.lang":               &f.Lang,
		"player.backend":             &f.PlayerBackend,
		"player.command":             &f.PlayerCommand,
		"transcription.provider":     &f.Provider,
		"transcription.openai_model": &f.OpenAIModel,
		"transcription.gemini_model": &f.GeminiModel,
	} {
		if viper.IsSet(key) {
			*target = viper.GetString(key)
		}
	}

	if viper.IsSet("transcription.parallel") {
		f.Parallel = viper.GetInt("transcription.parallel")
	}
	if viper.IsSet("verbose") {
		f.Verbose = viper.GetBool("verbose")
	}
}
