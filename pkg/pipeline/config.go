package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the file name of the project configuration, looked up in
// the project root.
const ConfigFile = "scorebuild.yaml"

// Config describes a score project: which external tools to call, the
// document basenames and what the clean target should remove.
type Config struct {
	// Typesetter is the command that turns a .tex source into a PDF.
	Typesetter string `yaml:"typesetter"`
	// Bibliography is the command that resolves citations against the
	// aux files of a previous typesetter run.
	Bibliography string `yaml:"bibliography"`
	// Main and Single are document basenames, without the .tex suffix.
	Main   string `yaml:"main"`
	Single string `yaml:"single"`
	// Output is where the final PDF is copied to.
	Output string `yaml:"output"`
	// Content is the directory holding the per-song sources for the
	// MIDI conversion.
	Content string `yaml:"content"`
	// CleanGlobs are the intermediate files removed by the clean target,
	// in addition to the typesetter's PDFs.
	CleanGlobs []string `yaml:"clean"`
}

func DefaultConfig() Config {
	return Config{
		Typesetter:   "musixtex",
		Bibliography: "bibtex",
		Main:         "main",
		Single:       "singleDev",
		Output:       "out.pdf",
		Content:      "content",
		CleanGlobs: []string{
			"*.aux", "*.log", "*.dvi", "*.idx", "*.toc",
			"*.bbl", "*.blg", "*.mx1", "*.mx2", "*.mlog",
		},
	}
}

// LoadConfig reads the project configuration. A missing file is not an
// error; every omitted key keeps its default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, eris.Wrapf(err, "failed to read %s", path)
	}

	err = yaml.Unmarshal(content, &cfg)
	if err != nil {
		return cfg, eris.Wrapf(err, "failed to parse %s", path)
	}

	return cfg, nil
}
