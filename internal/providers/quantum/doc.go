// Package quantum registers the optimization bridge as the "quantum"
// service: allocation, search, key generation, state, reset and history.
package quantum
