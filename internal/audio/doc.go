// Package audio plays the optional sound cue for timed-out launches.
//
// Sounds are decoded once with beep (WAV, OGG and MP3) and cached. A polling
// watcher drops the cached copy when the file on disk is replaced, so edits to
// the configured sound take effect without restarting the daemon.
package audio
