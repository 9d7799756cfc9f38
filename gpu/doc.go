// Package gpu defines the device abstraction the presentation pipeline is
// written against: textures, float buffers, compute programs, command
// streams with compute dispatches and render passes, and presentable
// drawables.
//
// Two implementations exist. Package soft executes everything on the CPU
// on its own timeline goroutine and is used headless and in tests. Package
// ebitengpu maps the same operations onto Ebitengine images and Kage
// shaders for on-screen presentation.
package gpu
