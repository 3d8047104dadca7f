// Package jxl implements the core of a JPEG XL decoder: container
// demultiplexing, frame section routing, the LfGlobal/LfGroup/HfGlobal/
// HfGroup phase decoders, and the recursive DCT/IDCT kernels those
// phases need (spec.md §1 Purpose/Scope).
//
// This core stops at coefficients: pixel reconstruction, progressive
// rendering, animation timing and encoding are explicitly out of scope
// (spec.md Non-goals). Callers that need rendered pixels sit above this
// package and consume the decoded Frame/DecoderState structures from
// internal/frame directly, or extend this package's public surface.
//
// Basic usage:
//
//	dec := jxl.NewDecoder()
//	result, err := dec.Decode(data)
package jxl
