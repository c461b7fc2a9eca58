// Package system registers the "system" service: runtime info, host load
// from /proc and a bounded event log that also receives backend variant
// changes.
package system
