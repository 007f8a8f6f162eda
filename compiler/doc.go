/*

Process of merging

Module Text ->
	parse ->
Intermediate Representation (ir) ->
	mergefn ->
Intermediate Representation (ir) ->
	format ->
Module Text

*/
package compiler
