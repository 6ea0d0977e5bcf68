// Package stein estimates the gradient the hypernetwork descends. In svgd mode the
// data-loss gradients of the particles are mixed through an RBF kernel and a repulsive
// kernel-gradient term keeps the ensemble diverse; in naive mode every particle only
// follows its own loss.
package stein
