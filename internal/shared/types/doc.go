// Package types holds the service and request types shared by the
// providers, the service registry and the HTTP API.
//
// Providers describe themselves with Service and Tool, receive a Context
// and answer with a Result. Request types bind the JSON bodies of the
// bridge, performance and service endpoints.
package types
