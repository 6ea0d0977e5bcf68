// Package device reports the compute resources the trainer runs on.
package device

import "fmt"
import "strings"

import "github.com/klauspost/cpuid/v2"

import "github.com/neurlang/hypernetwork/parallel"

// Report describes the CPU, the worker count and any CUDA devices.
func Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cpu %s, %d physical / %d logical cores, workers %d",
		strings.TrimSpace(cpuid.CPU.BrandName), cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, parallel.Threads())
	if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
		b.WriteString(", avx2+fma")
	}
	if cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ) {
		b.WriteString(", avx512")
	}
	b.WriteString("; ")
	b.WriteString(cudaReport())
	return b.String()
}
