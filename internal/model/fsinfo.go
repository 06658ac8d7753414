// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the FSInfo struct, which stores file system metadata.
//
// The file path connects a parsed task or cell back to its physical source on
// disk, so that validation errors can say exactly which file a problematic
// definition came from.
package model

// FSInfo records where a definition was read from.
type FSInfo struct {
	FilePath string
}

// NewFSInfo returns FSInfo for filePath.
func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}

// String returns the file path, or "<memory>" for definitions built in code.
func (f *FSInfo) String() string {
	if f == nil || f.FilePath == "" {
		return "<memory>"
	}
	return f.FilePath
}
