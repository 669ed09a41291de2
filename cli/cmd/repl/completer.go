package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/kay/lang"
)

// ctrlCommands are the commands accepted in command mode.
var ctrlCommands = []string{"help", "vars", "run", "edit", "clear", "quit"}

// methods are the list methods offered after a dot.
var methods = []string{"pop", "push"}

// isWordBoundary reports whether r separates completion words: whitespace,
// operators, delimiters and quotes.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n',
		'.', ',', ':', ';',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets in input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// isMethodPosition reports whether the word starting at wordStart follows a
// member-access dot. A dot after a number belongs to a float literal.
func isMethodPosition(input string, wordStart int) bool {
	if wordStart < 2 || input[wordStart-1] != '.' {
		return false
	}

	prev, _, _ := wordBounds(input, wordStart-1)

	return prev == "" || prev[0] < '0' || prev[0] > '9'
}

// candidates returns the completions for the word starting at wordStart: the
// list methods after a dot, otherwise keywords and bound variable names.
func candidates(names []string, input string, wordStart int) []string {
	if isMethodPosition(input, wordStart) {
		return methods
	}

	out := append(lang.Keywords(), names...)
	slices.Sort(out)

	return slices.Compact(out)
}

// computeMatches ranks the candidates for the word at the cursor. An empty
// word matches nothing, except after a dot where every method is offered.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var list []string

	if m.mode == modeCtrl {
		if wordStart > 0 {
			return nil, wordStart, wordEnd
		}

		list = ctrlCommands
	} else {
		list = candidates(m.names, input, wordStart)
	}

	if word == "" {
		if m.mode == modeCtrl || !isMethodPosition(input, wordStart) {
			return nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(list))
		for i, c := range list {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, list), wordStart, wordEnd
}

// renderCandidateBar renders the completion bar, cut with an ellipsis to fit
// width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	selected int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == selected)
		w := lipgloss.Width(rendered)

		if i > 0 {
			if i < len(matches)-1 && used+len(sep)+w+reserve > width ||
				used+len(sep)+w > width {
				b.WriteString(sep + ellipsis)

				break
			}

			b.WriteString(sep)
			used += len(sep)
		}

		b.WriteString(rendered)
		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched runes emphasized.
// Methods carry a "()" suffix that is not part of the completion.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, emph := suggestionStyle, matchStyle
	if selected {
		base, emph = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(emph.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if slices.Contains(methods, match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
