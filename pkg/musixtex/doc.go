// Package musixtex extracts playable note sequences from MusixTeX sources.
// It only understands the subset of MusixTeX that the songbook sources use:
// single-voice note commands, beam groups, accidentals and repeats. Sources
// opt in to conversion with a \midifyable marker.
package musixtex
