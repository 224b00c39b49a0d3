// Package interp provides the interpolation kernels used to resample a
// spectrum at arbitrary positions of its dispersion axis.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// [Locate] finds the bracketing interval of a position on a strictly
// increasing axis and [At] combines both into a single lookup that returns
// NaN outside the axis coverage.
package interp
