//go:build !darwin

package platform

// RunMain runs fn. Only darwin needs the main thread for callbacks.
func RunMain(fn func() int) int {
	return fn()
}
