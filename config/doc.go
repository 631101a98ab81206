// Package config loads the uistream YAML configuration file.
//
// A file only needs the sections it changes; Load starts from Default and
// overlays the file. Durations are strings in time.ParseDuration form.
package config
