// Package capture determines when a photo was taken and orders photos by
// that date.
package capture
