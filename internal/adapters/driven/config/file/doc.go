// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in a TOML file. Dotted keys are written as
// nested tables, so "moodle.token" lands in a [moodle] section.
package file
