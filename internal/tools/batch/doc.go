// Package batch runs one tool action over several item ids and reports the
// outcome of each, so a single failed email does not abort the rest.
package batch
