// Package main provides the hypernetwork training program. It trains a generator
// of classifier weights with Stein variational gradients (or plain gradients with
// -g naive), tests the particle ensemble by voting after every epoch and can plot
// the uncertainty of the ensemble on in and out of distribution inputs.
//
// Pass -pgo to collect a CPU profile into default.pgo until the program is interrupted.
package main
