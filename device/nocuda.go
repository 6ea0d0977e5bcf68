//go:build !cuda

package device

func cudaReport() string {
	return "cuda disabled (build with -tags cuda)"
}
