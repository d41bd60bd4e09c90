//go:build !linux

package avi

import "os"

func adviseRandomAccess(*os.File) {}
