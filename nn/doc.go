// Package nn implements the small reverse-mode toolkit the hypernetwork is built from:
// dense layers, ReLU, a sequential container whose backward pass starts from a supplied
// upstream gradient, and the Adam optimizer.
package nn
