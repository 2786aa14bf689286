/*
Package dsl provides a fluent builder for dialog definitions.

It is the programmatic counterpart of YAML flows: bare steps are backed by Go handlers,
configured steps are described inline.

Example usage:

	def := dsl.Define("signup").
		Handle("askName", askName).
		Handle("saveName", saveName).
		Add("done").HTML("<b>All set!</b>").Terminal().
		Builder().
		TTL(10 * time.Minute).
		MustBuild()
*/
package dsl
