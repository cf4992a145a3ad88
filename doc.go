/*
Package fcheck checks generated text, e.g. compiler IR dumps, against
directives that are embedded in an annotated source file. The directives
say which fragments the output must contain, in which order, and which
fragments it must not contain.

A directive starts with "#CHECK:" and ends with "#END". The text in between
is the directive's body. Bodies may span more than one line and leading and
trailing whitespace is ignored. Directives can be put anywhere, e.g. into
comments of the annotated source:

	// #CHECK: funclet %main #END
	fn main() -> i64 { 1 }

The body is searched in the output text after the end of the match of the
previous directive. The output must contain all bodies in the same order
as the directives appear in the annotated source.

# Kinds of Directives

	#CHECK: body #END

Matches body after the previous match.

	#CHECK-NOT: body #END

Fails if body occurs after the previous match. It does not move the
position where the next directive starts searching.

	#CHECK-LABEL: body #END

Matches like "#CHECK:" and starts a new section of the output at the
label's match. Output text between the previous label and the last match
before the new label is closed. No later directive will match there.

Text that looks like a start marker but is not followed by ':' and
directives without "#END" are ignored.

# Writing Bodies

Most of a body is matched literally with the following relaxations:

  - Any run of whitespace matches one or more whitespace characters.
    Don't put a space where the output may have none.
  - The characters + ( ) * [ ] and " are matched literally. Other regular
    expression syntax, e.g. '.' or '?', is not escaped.
  - The wildcard "..." matches the shortest text, even across lines,
    that has balanced parentheses, brackets and braces. A match where the
    wildcard text is unbalanced is skipped and the search continues at the
    next start position.

The following forms are not matched literally:

	{{regex}}

Inserts the regular expression regex into the search pattern.

	[[name:regex]]

Matches regex and binds the matched text to name. The binding becomes
visible to directives after the current one.

	[[name]]

Matches the text bound to name by an earlier directive. It is an error
to use a name that was not bound before or that is declared in the same
directive.

	${name}

Matches the value of the constant name. Constants are set up before
checking, e.g. with "fcheck check -d name=value". Undefined constants are
an error.

# Regular Expressions

Regular expressions use the syntax of github.com/dlclark/regexp2, i.e.
Perl/Python style with backtracking. A directive's pattern is searched
in the whole output starting at the cursor, so '^', `\A` and `\b` see the
text before the cursor.

# Checking

A Checker runs the directives of a DirectiveReader one after another. The
first directive that fails stops the check with a DirectiveError. Errors
in the directives themselves, e.g. undefined captures, are ConfigErrors.
*/
package fcheck
