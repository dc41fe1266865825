// Package hclexpr compiles HCL expressions into factor graph outputs and
// factors.
//
// Expressions read variable blocks through the "var" root and parameter
// blocks through the "param" root. Parameter names that are not valid HCL
// identifiers, such as wiring blocks, use index syntax:
//
//	var.note[0] + param.root[0]
//	param["Chords.tones.Target"][1]
//
// Every referenced block is exposed as a list of numbers.
package hclexpr
