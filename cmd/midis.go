package cmd

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mkratky/scorebuild/pkg/midi"
	"github.com/mkratky/scorebuild/pkg/musixtex"
)

var midisCmd = &cobra.Command{
	Use:   "midis [path]",
	Short: "Convert MusixTeX sources to MIDI files",
	Long: `Converts every source marked \midifyable in the given file or directory
to a standard MIDI file in a midiOutput directory next to it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zerolog.New(NewConsoleWriter())
		ctx := logger.WithContext(context.Background())

		path := "content"
		if len(args) > 0 {
			path = args[0]
		}

		written, err := convertScores(ctx, path)
		if err != nil {
			return err
		}

		logger.Info().Str("path", path).Msgf("wrote %d MIDI files", len(written))
		return nil
	},
}

// loadSources reads the given file, or every file directly inside the given
// directory, keyed by file name.
func loadSources(path string) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to check %s", path)
	}

	sources := map[string]string{}
	if !info.IsDir() {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read %s", path)
		}

		sources[filepath.Base(path)] = string(content)
		return sources, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to list %s", path)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(path, entry.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read %s", entry.Name())
		}

		sources[entry.Name()] = string(content)
	}

	return sources, nil
}

// convertScores converts every midifyable source under path and returns the
// paths of the written MIDI files. The output directory sits next to the
// given path.
func convertScores(ctx context.Context, path string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	sources, err := loadSources(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	outDir := filepath.Join(filepath.Dir(filepath.Clean(path)), "midiOutput")
	bar := progressbar.Default(int64(len(names)), "converting")
	written := []string{}

	for _, name := range names {
		bar.Add(1)

		src := sources[name]
		if !musixtex.Midifyable(src) {
			logger.Debug().Str("path", name).Msg("not midifyable, skipping")
			continue
		}

		score, err := musixtex.Parse(ctx, src)
		if err != nil {
			return written, eris.Wrapf(err, "failed to parse %s", name)
		}

		notes := make([]midi.Note, len(score.Notes))
		for idx, note := range score.Notes {
			key, err := note.MidiKey()
			if err != nil {
				return written, eris.Wrapf(err, "failed to convert %s", name)
			}

			notes[idx] = midi.Note{Key: key, Start: note.Start, Duration: note.Duration}
		}

		data, err := midi.Encode(notes)
		if err != nil {
			return written, eris.Wrapf(err, "failed to encode %s", name)
		}

		err = os.MkdirAll(outDir, 0770)
		if err != nil {
			return written, eris.Wrapf(err, "failed to create %s", outDir)
		}

		outPath := filepath.Join(outDir, name+".mid")
		err = os.WriteFile(outPath, data, 0660)
		if err != nil {
			return written, eris.Wrapf(err, "failed to write %s", outPath)
		}

		written = append(written, outPath)
	}

	return written, nil
}

func init() {
	rootCmd.AddCommand(midisCmd)
}
