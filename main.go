package main

import "github.com/mkratky/scorebuild/cmd"

func main() {
	cmd.Execute()
}
