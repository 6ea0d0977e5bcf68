//go:build cuda

package device

import "fmt"

import "gorgonia.org/cu"

func cudaReport() string {
	n, err := cu.NumDevices()
	if err != nil {
		return "cuda error: " + err.Error()
	}
	if n == 0 {
		return "no cuda devices"
	}
	name, err := cu.Device(0).Name()
	if err != nil {
		return "cuda error: " + err.Error()
	}
	memory, err := cu.Device(0).TotalMem()
	if err != nil {
		return "cuda error: " + err.Error()
	}
	return fmt.Sprintf("%d cuda devices, device 0 %s with %d MiB", n, name, memory>>20)
}
