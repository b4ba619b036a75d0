//go:build sqlite_vec && cgo

package embedding

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	vec.Auto()
}
