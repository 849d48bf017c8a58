package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// allowedImports are the standard library packages a script may import.
// Only their symbols are handed to the interpreter, so a package missing
// here cannot be reached even when the signature check is skipped. This
// restricts what scripts can import; it does not bound CPU or memory.
var allowedImports = map[string]bool{
	"bytes":           true,
	"container/heap":  true,
	"container/list":  true,
	"container/ring":  true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"maps":            true,
	"math":            true,
	"math/big":        true,
	"math/bits":       true,
	"math/cmplx":      true,
	"math/rand":       true,
	"regexp":          true,
	"slices":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,
	"unicode/utf16":   true,
	"encoding/csv":    true,
	"encoding/base64": true,
	"encoding/hex":    true,
	"hash/crc32":      true,
	"hash/fnv":        true,
	"text/tabwriter":  true,
}

// scriptSymbols is stdlib.Symbols narrowed to allowedImports. Keys have the
// form "<import path>/<package name>".
var scriptSymbols = sync.OnceValue(func() interp.Exports {
	out := make(interp.Exports)
	for key, syms := range stdlib.Symbols {
		if allowedImports[path.Dir(key)] {
			out[key] = syms
		}
	}
	return out
})

// signature is the cached description of a script's entry function, stored
// next to the script in the cache directory.
type signature struct {
	SHA256 string   `json:"sha256"`
	Entry  string   `json:"entry"`
	Params []string `json:"params"`
}

func hashSource(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// inspect parses src and returns the parameter names of the top-level
// function entry. Unnamed parameters are reported as "_".
func inspect(name string, src []byte, entry string) (signature, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name+".go", src, parser.SkipObjectResolution)
	if err != nil {
		return signature{}, fmt.Errorf("parse script: %w", err)
	}
	if file.Name.Name != "main" {
		return signature{}, fmt.Errorf("script %s: package %s, want main", name, file.Name.Name)
	}
	for _, imp := range file.Imports {
		p, _ := strconv.Unquote(imp.Path.Value)
		if !allowedImports[p] {
			return signature{}, fmt.Errorf("script %s: import %q is not allowed", name, p)
		}
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Name.Name != entry {
			continue
		}
		params := []string{}
		for _, field := range fn.Type.Params.List {
			if len(field.Names) == 0 {
				params = append(params, "_")
				continue
			}
			for _, n := range field.Names {
				params = append(params, n.Name)
			}
		}
		return signature{SHA256: hashSource(src), Entry: entry, Params: params}, nil
	}
	return signature{}, fmt.Errorf("script %s: function %s not found", name, entry)
}

func decodeSignature(data []byte) (signature, error) {
	var sig signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return signature{}, err
	}
	return sig, nil
}
