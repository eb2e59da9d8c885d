//go:build !darwin

package bundlehook

// processBundle stands for the process itself on platforms without a bundle
// abstraction. The notification services there take the identity by name,
// so installation only records it.
const processBundle Bundle = 1

type processRuntime struct{}

func platformRuntime() Runtime {
	return processRuntime{}
}

func (processRuntime) MainBundle() (Bundle, error) {
	return processBundle, nil
}

func (processRuntime) Replace(Resolver) error {
	return nil
}
