// Package main provides a program that loads a trained hypernetwork checkpoint
// and reports the test accuracy of its ensemble for a vote mode and ensemble size.
// The generator flags must match the ones the checkpoint was trained with.
package main
