// Package pipeline declares the built-in scorebuild targets. The target
// list is fixed; projects can only adjust tool names and file names through
// their configuration.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/mkratky/scorebuild/pkg/buildsys"
)

// ReservedNames returns the task names a project task script may not
// redeclare.
func ReservedNames() map[string]bool {
	return map[string]bool{
		"all":       true,
		"single":    true,
		"midis":     true,
		"clean":     true,
		"configure": true,
	}
}

func cmds(taskName string, scripts ...string) []buildsys.TaskCmd {
	result := make([]buildsys.TaskCmd, len(scripts))
	for idx, content := range scripts {
		result[idx] = buildsys.TaskCmdScript{
			TaskName: taskName,
			Content:  content,
			Index:    idx,
		}
	}
	return result
}

// cleanPatterns is everything the clean target removes: the configured
// intermediate globs plus the typesetter's own PDFs. The final output file
// is kept.
func cleanPatterns(cfg Config) []string {
	patterns := append([]string{}, cfg.CleanGlobs...)
	patterns = append(patterns, cfg.Main+".pdf", cfg.Single+".pdf")
	return patterns
}

// Tasks builds the built-in target list for a project rooted at root.
func Tasks(cfg Config, root string) buildsys.TaskList {
	typesetMain := fmt.Sprintf("%s %s.tex", cfg.Typesetter, cfg.Main)

	all := &buildsys.Task{
		Short: "all",
		Desc:  "typeset the full songbook including the bibliography",
		Base:  root,
		Cmds: cmds("all",
			typesetMain,
			fmt.Sprintf("%s %s", cfg.Bibliography, cfg.Main),
			typesetMain,
			fmt.Sprintf("cp %s.pdf %s", cfg.Main, cfg.Output),
		),
	}

	single := &buildsys.Task{
		Short: "single",
		Desc:  "typeset the development selection",
		Base:  root,
		Cmds: cmds("single",
			fmt.Sprintf("%s %s.tex", cfg.Typesetter, cfg.Single),
			fmt.Sprintf("cp %s.pdf %s", cfg.Single, cfg.Output),
		),
	}

	midis := &buildsys.Task{
		Short: "midis",
		Desc:  "convert the song sources to MIDI files",
		Base:  root,
		Cmds: cmds("midis",
			fmt.Sprintf("midify %s", cfg.Content),
		),
	}

	clean := &buildsys.Task{
		Short: "clean",
		Desc:  "remove generated intermediate files",
		Base:  root,
		Cmds: cmds("clean",
			"rm -f "+strings.Join(cleanPatterns(cfg), " "),
			"rm -rf midiOutput",
		),
	}

	return buildsys.TaskList{
		all.Short:    all,
		single.Short: single,
		midis.Short:  midis,
		clean.Short:  clean,
	}
}
