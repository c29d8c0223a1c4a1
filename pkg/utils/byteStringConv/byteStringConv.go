package byteStringConv

import (
	"unsafe"
)

// BytesToString 注意内存安全，该方法 string 与 byte 指向同个内存地址，返回后不能再修改 b
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBytes 注意内存安全，该方法 string 与 byte 指向同个内存地址，返回的切片只读
func StringToBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
