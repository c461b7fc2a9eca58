// Package utils validates request input before it reaches the bridge
// and the optimizers.
package utils
