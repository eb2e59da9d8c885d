//go:build darwin

package bundlehook

/*
#cgo LDFLAGS: -framework Foundation
#include <stdint.h>

uintptr_t bundlehookMainBundle(void);
int bundlehookSwizzle(void);
*/
import "C"

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	activeResolver atomic.Pointer[Resolver]
	// C copies of identifiers handed to the stub. They live until exit.
	cIdentifiers sync.Map
)

//export bundlehookResolve
func bundlehookResolve(recv C.uintptr_t) *C.char {
	resolve := activeResolver.Load()
	if resolve == nil {
		return nil
	}
	id, ok := (*resolve)(Bundle(recv))
	if !ok {
		return nil
	}
	if p, ok := cIdentifiers.Load(id); ok {
		return p.(*C.char)
	}
	p, _ := cIdentifiers.LoadOrStore(id, C.CString(id))
	return p.(*C.char)
}

type objcRuntime struct{}

func platformRuntime() Runtime {
	return objcRuntime{}
}

func (objcRuntime) MainBundle() (Bundle, error) {
	b := C.bundlehookMainBundle()
	if b == 0 {
		return 0, errors.New("process has no main bundle")
	}
	return Bundle(b), nil
}

func (objcRuntime) Replace(resolve Resolver) error {
	activeResolver.Store(&resolve)
	switch C.bundlehookSwizzle() {
	case 0:
		return nil
	case 1:
		activeResolver.Store(nil)
		return ErrMethodNotFound
	default:
		activeResolver.Store(nil)
		return ErrReplaceFailed
	}
}
