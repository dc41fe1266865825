// internal/portname/doc.go

/*
Package portname defines the string convention that couples a graph to the
graph instances nested inside it.

A parent feeds an instance through an output named

	<instance>.<parameter>.Source

which is evaluated by the parent and written into the instance's parameter
block `<parameter>` before the instance samples. An instance reports back
through the parent's parameter block named

	<instance>.<output>.Target

which receives the instance's output `<output>` after the instance sampled.

Instance names never contain dots, so the first dot always separates the
instance from the port name. Port names themselves may contain dots.
*/
package portname
