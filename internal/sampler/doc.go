/*
Package sampler drives a factor graph and its nested instances to a new
variation.

A Sampler owns the variation of one graph instance and one sampler per nested
instance. Sampling first runs every nested instance in declaration order,
wiring data in and out of it by name:

	<instance>.<param>.Source    parent output feeding the child's parameter block
	<instance>.<output>.Target   parent parameter block receiving the child's output

and then sweeps the graph's own variables. Sampling can run synchronously or on
a worker pool; a Sampler performs at most one sampling operation at a time and
rejects overlapping requests with ErrConcurrentSampling.

After sampling, the outputs can be projected into pattern tracks
(SetColumnsFromOutputs) or named blocks (FillCrateWithOutputs).
*/
package sampler
