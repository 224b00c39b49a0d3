// Package doppler shifts spectra along their dispersion axis to emulate a
// radial velocity between source and observer.
//
// A shift by velocity v (km/s, positive = receding) moves every feature from
// wavelength λ to λ·(1+v/c). The result is resampled onto the original axis,
// so it has the same length as the input. Output samples whose source lies
// outside the original coverage are undefined (NaN) unless [EdgeFirstLast]
// is selected.
//
// Two shifters are provided:
//
//   - [Interpolating] (via [New]) works on any strictly increasing axis and
//     interpolates linearly or with a cubic Hermite kernel.
//   - [Fourier] (via [NewFourier]) requires a log-uniform axis, on which a
//     Doppler shift is a constant translation, and applies it as a phase
//     ramp in the frequency domain.
//
// Both satisfy [Shifter], the contract consumed by package disentangle.
package doppler
