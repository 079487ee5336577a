package util

import (
	"math/rand"
	"reflect"
	"time"
)

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz")

func Randstring(n int) string {
	rand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

// StructMap returns the exported fields of a struct (or pointer to one) by name.
func StructMap(s any) map[string]any {
	out := map[string]any{}
	typ := reflect.TypeOf(s)
	struc := reflect.ValueOf(s)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		struc = struc.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		if !typ.Field(i).IsExported() {
			continue
		}
		name := typ.Field(i).Name
		out[name] = struc.FieldByName(name).Interface()
	}
	return out
}
