/*
Package compiler turns ZScript source into ZASM scripts.

	source ->
		parse ->
	ast ->
		preprocess (imports) ->
	merged ast ->
		analyze ->
	symbol table ->
		generate ->
	labeled code per function ->
		assemble ->
	one instruction list per script

Diagnostics of a stage are all collected before the next stage is refused.
*/
package compiler
