//go:build !rewinddebug

package snapshot

// invariant в обычной сборке ничего не проверяет.
// Сборка с тегом rewinddebug превращает нарушения в панику.
func invariant(bool, string, ...interface{}) {}
