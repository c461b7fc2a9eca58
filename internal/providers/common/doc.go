// Package common holds the result and parameter helpers shared by tool
// providers.
package common
