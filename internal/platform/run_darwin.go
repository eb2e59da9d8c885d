//go:build darwin

package platform

/*
void alerterRunApp(void);
void alerterStopApp(void);
*/
import "C"

import "runtime"

// The application run loop must own the main thread, which is the thread
// running package init.
func init() {
	runtime.LockOSThread()
}

// RunMain runs fn on a goroutine while the main thread pumps the application
// run loop that carries the notification center's callbacks. It returns fn's
// result once fn finishes.
func RunMain(fn func() int) int {
	code := make(chan int, 1)
	go func() {
		code <- fn()
		C.alerterStopApp()
	}()
	C.alerterRunApp()
	return <-code
}
