// Package trainer drives the hypernetwork: every mini-batch it samples a
// particle ensemble, measures its cross-entropy, turns the per-particle
// gradients into a Stein corrected update and steps the generator. After
// every epoch the ensemble is tested by soft or hard voting.
package trainer
