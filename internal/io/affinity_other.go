//go:build !linux

package io

import "errors"

func pinToCore(int) (func(), error) {
	return func() {}, errors.New("core pinning is only supported on linux")
}
