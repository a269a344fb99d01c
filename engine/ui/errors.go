package ui

import "errors"

var (
	// ErrBufferOverflow is returned by Convert when the frame's geometry does
	// not fit the vertex or element buffer. Nothing is written past capacity.
	ErrBufferOverflow = errors.New("ui: conversion buffer overflow")
	// ErrIndexOverflow is returned by Convert when the frame needs more
	// vertices than 16-bit indices can address.
	ErrIndexOverflow  = errors.New("ui: too many vertices for 16-bit indices")
	// ErrInputPhase is returned for calls made in the wrong input phase.
	ErrInputPhase     = errors.New("ui: call not allowed in current input phase")
	ErrAtlasNotBaked  = errors.New("ui: font atlas has not been baked")
)
