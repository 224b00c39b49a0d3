// Package disentangle reconstructs the rest-frame spectra of the two stars
// of a double-lined binary from a series of composite observations.
//
// Each observation is a blend of both components, Doppler-shifted by their
// radial velocities at the time of exposure. Given those velocities, the
// templates are rebuilt by alternating two estimates:
//
//   - [InitialTemplate] shifts every observation into the primary's rest
//     frame and averages them, giving a first primary template.
//   - [SecondaryTemplate] shifts every observation into the secondary's rest
//     frame, subtracts the primary template shifted by the relative velocity
//     and averages the residuals.
//   - [PrimaryTemplate] is the mirror image and refines the primary template
//     from the current secondary template.
//
// The caller drives the iteration: feed each call's result into the other
// until the templates stop changing by whatever measure suits the data.
//
// Doppler shifting leaves samples at the ends of the axis without data. Such
// samples are NaN; they are left out of the average position by position, so
// a sample is NaN in a template only when no observation covers it.
//
// All operations are pure: inputs are never modified and every call
// returns a new slice.
package disentangle
