// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "reflect"

// MemUsage estimates the number of bytes an Entry occupies once resident in
// the pool, by walking the value with reflection and summing pointer,
// slice, map, and struct contents. The pool's running `size` accumulator
// (spec §3, invariant I1) is the sum of this across every tracked entry.
func (e *Entry) MemUsage() uint64 {
	if e == nil {
		return 0
	}
	return uint64(mempoolEntrySize) + uint64(dynamicMemUsage(reflect.ValueOf(e.Tx)))
}

func dynamicMemUsage(v reflect.Value) uintptr {
	return walkMemUsage(v, 0)
}

func walkMemUsage(v reflect.Value, level int) uintptr {
	if !v.IsValid() {
		return 0
	}
	t := v.Type()
	bytes := t.Size()

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			bytes += walkMemUsage(v.Elem(), level+1)
		}

	case reflect.Array, reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			vi := v.Index(j)
			k := vi.Type().Kind()

			if k == reflect.Uint8 {
				// Byte slices/arrays are common (scripts,
				// witness items); short-circuit rather than
				// walking element by element.
				bytes += uintptr(v.Len())
				break
			}

			if t.Kind() == reflect.Array {
				if (k == reflect.Pointer || k == reflect.Interface) && !vi.IsNil() {
					bytes += walkMemUsage(vi.Elem(), level+1)
				}
			} else {
				bytes += walkMemUsage(vi, level+1)
			}
		}

	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			bytes += walkMemUsage(iter.Key(), level+1)
			bytes += walkMemUsage(iter.Value(), level+1)
		}

	case reflect.Struct:
		for _, f := range reflect.VisibleFields(t) {
			vf := v.FieldByIndex(f.Index)
			k := vf.Type().Kind()
			switch {
			case (k == reflect.Pointer || k == reflect.Interface) && !vf.IsNil():
				bytes += walkMemUsage(vf.Elem(), level+1)
			case k == reflect.Array || k == reflect.Slice:
				bytes -= vf.Type().Size()
				bytes += walkMemUsage(vf, level+1)
			}
		}
	}

	return bytes
}
