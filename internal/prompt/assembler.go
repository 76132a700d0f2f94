// Package prompt assembles request envelopes from layered context, the
// stored history window, and the current input. Pure functions over typed
// structures; the two shapes are single-shot (one big text turn) and chat
// (one turn per stored exchange).
package prompt

import (
	"fmt"
	"strings"

	"askgemini/internal/gemini"
	"askgemini/internal/history"
)

const (
	historyHeader = "Recent conversation:"
	requestHeader = "Current request:"
)

// SingleShot builds one user turn containing the context block, the
// rendered history window, and the current input, in that order. Empty
// context and empty window contribute nothing, not blank sections.
func SingleShot(contextBlock string, window []history.Record, input string, extra ...gemini.Part) []gemini.Content {
	var sections []string

	if contextBlock != "" {
		sections = append(sections, contextBlock)
	}
	if len(window) > 0 {
		var b strings.Builder
		b.WriteString(historyHeader)
		for _, rec := range window {
			fmt.Fprintf(&b, "\nUser: %s\nAssistant: %s", rec.Prompt, rec.Response)
		}
		sections = append(sections, b.String())
	}
	if len(sections) > 0 {
		sections = append(sections, requestHeader+"\n"+input)
	} else {
		// Nothing layered in front: the input stands alone, unframed.
		sections = append(sections, input)
	}

	parts := []gemini.Part{gemini.TextPart(strings.Join(sections, "\n\n"))}
	parts = append(parts, extra...)
	return []gemini.Content{{Role: "user", Parts: parts}}
}

// Chat builds a multi-turn envelope: an optional leading user turn carrying
// the context block, the history window expanded to user/model turn pairs,
// then the new user turn. The context turn is injected only when the window
// is empty, so it appears at most once per conversation rather than
// accumulating turn over turn.
func Chat(contextBlock string, window []history.Record, input string) []gemini.Content {
	turns := make([]gemini.Content, 0, 2*len(window)+2)

	if contextBlock != "" && len(window) == 0 {
		turns = append(turns, gemini.UserTurn(contextBlock))
	}
	for _, rec := range window {
		turns = append(turns, gemini.UserTurn(rec.Prompt), gemini.ModelTurn(rec.Response))
	}
	return append(turns, gemini.UserTurn(input))
}

// PrependFile frames file content ahead of the prompt text, preserving the
// wording the tool has always used for the --file flag.
func PrependFile(path, content, prompt string) string {
	return fmt.Sprintf("Content from file '%s':\n%s\n\n---\n\nUser Prompt:\n%s", path, content, prompt)
}
