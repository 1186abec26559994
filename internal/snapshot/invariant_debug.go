//go:build rewinddebug

package snapshot

import "fmt"

func invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("snapshot: "+format, args...))
	}
}
