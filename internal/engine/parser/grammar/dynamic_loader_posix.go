//go:build !windows

package grammar

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef const void* (*ts_language_fn)(void);

const void* load_ts_lang(const char* path, const char* name) {
    void* handle = dlopen(path, RTLD_NOW | RTLD_LOCAL);
    if (!handle) return NULL;
    void* sym = dlsym(handle, name);
    if (!sym) return NULL;
    return ((ts_language_fn)sym)();
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// LoadDynamic opens a compiled grammar and returns the language exported as
// tree_sitter_<langName>. The library stays loaded for the process lifetime.
func LoadDynamic(path, langName string) (*sitter.Language, error) {
	symbol := "tree_sitter_" + langName
	cPath := C.CString(path)
	cSymbol := C.CString(symbol)
	defer C.free(unsafe.Pointer(cPath))
	defer C.free(unsafe.Pointer(cSymbol))

	ptr := C.load_ts_lang(cPath, cSymbol)
	if ptr == nil {
		return nil, fmt.Errorf("failed to load %s from %s", symbol, path)
	}
	return sitter.NewLanguage(unsafe.Pointer(ptr)), nil
}
