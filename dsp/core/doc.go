// Package core holds the small numeric vocabulary shared by the spectral
// packages: the speed of light and Doppler factor, undefined-sample helpers
// and slice utilities.
//
// Undefined samples are represented as NaN and are never treated as zero.
package core
