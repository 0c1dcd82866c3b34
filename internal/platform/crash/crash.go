// Package crash guarda los fallos inesperados en un archivo antes de salir.
package crash

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// Report agrega una entrada al log de errores.
func Report(path, where string, cause any) {
	slog.Error("crash: "+where, "error", cause)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Error("crash: open log", "path", path, "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s - %s\n%v\n%s\n", time.Now().UTC().Format(time.RFC3339), where, cause, debug.Stack())
}

// Recover debe usarse con defer en main y en cada goroutine de larga vida:
// registra el panic y termina el proceso.
func Recover(path, where string) {
	r := recover()
	if r == nil {
		return
	}
	Report(path, where, r)
	os.Exit(1)
}
