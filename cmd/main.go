// Package cmd implements the scorebuild CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scorebuild",
	Short: "Build tool for MusixTeX score projects",
	Long: `scorebuild sequences the external tools that turn a MusixTeX songbook
into a PDF and converts the song sources to MIDI files.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
